package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gauthierbraillon/redditpersona/internal/activity"
	"github.com/gauthierbraillon/redditpersona/internal/persona"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
)

// WriteError reports a failure to create or write an output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Dump is the machine-readable companion of the text report.
type Dump struct {
	RunID       string            `json:"run_id"`
	Username    string            `json:"username"`
	GeneratedAt time.Time         `json:"generated_at"`
	Account     *reddit.Account   `json:"account"`
	Records     []activity.Record `json:"records"`
	Persona     persona.Result    `json:"persona"`
}

// Writer writes report files into one output directory.
type Writer struct {
	dir           string
	interestLimit int
	newRunID      func() string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithInterestLimit caps the interests shown in the text report.
func WithInterestLimit(n int) WriterOption {
	return func(w *Writer) {
		w.interestLimit = n
	}
}

// WithRunID replaces the UUID generator for run IDs.
func WithRunID(fn func() string) WriterOption {
	return func(w *Writer) {
		w.newRunID = fn
	}
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:           dir,
		interestLimit: DefaultInterestLimit,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders result to dir with default settings.
func Write(result persona.Result, records []activity.Record, account reddit.Account, dir string) (textPath, jsonPath string, err error) {
	return NewWriter(dir).Write(result, records, account)
}

// Write creates the output directory if needed and writes both files,
// replacing earlier runs for the same user.
func (w *Writer) Write(result persona.Result, records []activity.Record, account reddit.Account) (textPath, jsonPath string, err error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", "", &WriteError{Path: w.dir, Err: err}
	}

	textPath, jsonPath = Paths(w.dir, result.Username)

	if err := os.WriteFile(textPath, []byte(Text(result, w.interestLimit)), 0644); err != nil {
		return "", "", &WriteError{Path: textPath, Err: err}
	}

	if records == nil {
		records = []activity.Record{}
	}
	dump := Dump{
		RunID:       w.newRunID(),
		Username:    result.Username,
		GeneratedAt: result.GeneratedAt,
		Records:     records,
		Persona:     result,
	}
	if account.Known() {
		dump.Account = &account
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
		return "", "", &WriteError{Path: jsonPath, Err: err}
	}

	return textPath, jsonPath, nil
}

// Paths returns the text and JSON file locations for username under dir.
func Paths(dir, username string) (textPath, jsonPath string) {
	clean := filepath.Base(username)
	return filepath.Join(dir, clean+"_persona.txt"), filepath.Join(dir, clean+"_raw_data.json")
}

// ReadDump loads a JSON dump written by Write.
func ReadDump(path string) (Dump, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built by Paths
	if err != nil {
		return Dump{}, fmt.Errorf("failed to read report: %w", err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return Dump{}, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return dump, nil
}
