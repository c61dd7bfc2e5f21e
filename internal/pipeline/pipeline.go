// Package pipeline runs one persona generation: fetch, normalize, analyze,
// write. The CLI and the HTTP server share it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gauthierbraillon/redditpersona/internal/activity"
	"github.com/gauthierbraillon/redditpersona/internal/persona"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
)

// Fetcher retrieves a user's raw activity and account metadata.
type Fetcher interface {
	FetchActivity(ctx context.Context, username string, opts reddit.FetchOptions) ([]reddit.RawItem, error)
	FetchAccount(ctx context.Context, username string) (reddit.Account, error)
}

// ReportWriter persists a finished persona.
type ReportWriter interface {
	Write(result persona.Result, records []activity.Record, account reddit.Account) (textPath, jsonPath string, err error)
}

// Outcome describes a completed run.
type Outcome struct {
	Username string
	Account  reddit.Account
	Records  []activity.Record
	Skipped  []activity.Skipped
	Result   persona.Result
	TextPath string
	JSONPath string
	// Empty is set when the user had no usable public activity. The
	// minimal report is still written.
	Empty    bool
	Duration time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetchOptions sets paging limits.
func WithFetchOptions(opts reddit.FetchOptions) Option {
	return func(p *Pipeline) {
		p.fetchOpts = opts
	}
}

// WithAnalysisOptions sets analyzer limits. Now is filled per run.
func WithAnalysisOptions(opts persona.Options) Option {
	return func(p *Pipeline) {
		p.analysisOpts = opts
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock replaces the wall clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline holds the immutable inputs of every run.
type Pipeline struct {
	fetcher      Fetcher
	writer       ReportWriter
	lexicon      persona.Lexicon
	fetchOpts    reddit.FetchOptions
	analysisOpts persona.Options
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a pipeline.
func New(fetcher Fetcher, writer ReportWriter, lexicon persona.Lexicon, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:      fetcher,
		writer:       writer,
		lexicon:      lexicon,
		fetchOpts:    reddit.DefaultFetchOptions(),
		analysisOpts: persona.DefaultOptions(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run generates the persona for username. Fetch failures abort before
// anything is written; a failed account lookup only degrades the report.
func (p *Pipeline) Run(ctx context.Context, username string) (*Outcome, error) {
	start := p.now()
	log := p.logger.With("username", username)

	log.Debug("fetching activity",
		"max_pages", p.fetchOpts.MaxPages,
		"item_cap", p.fetchOpts.ItemCap,
		"page_delay", p.fetchOpts.PageDelay,
	)
	items, err := p.fetcher.FetchActivity(ctx, username, p.fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching activity for u/%s: %w", username, err)
	}
	log.Debug("activity fetched", "items", len(items))

	account, err := p.fetcher.FetchAccount(ctx, username)
	if err != nil {
		log.Warn("account lookup failed, continuing without account metadata", "error", err)
		account = reddit.Account{}
	}

	records, skipped := activity.Normalize(items)
	for _, s := range skipped {
		log.Warn("skipped activity item", "index", s.Index, "id", s.ID, "reason", s.Reason)
	}

	opts := p.analysisOpts
	opts.Now = p.now().UTC().Truncate(time.Second)
	result := persona.Analyze(records, username, account, p.lexicon, opts)

	textPath, jsonPath, err := p.writer.Write(result, records, account)
	if err != nil {
		return nil, fmt.Errorf("writing report for u/%s: %w", username, err)
	}

	outcome := &Outcome{
		Username: username,
		Account:  account,
		Records:  records,
		Skipped:  skipped,
		Result:   result,
		TextPath: textPath,
		JSONPath: jsonPath,
		Empty:    result.Empty(),
		Duration: p.now().Sub(start),
	}

	log.Info("persona generated",
		"records", len(records),
		"skipped", len(skipped),
		"empty", outcome.Empty,
		"text_path", textPath,
		"duration", outcome.Duration,
	)
	return outcome, nil
}
