// Package main provides the redditpersona CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/redditpersona/internal/config"
	"github.com/gauthierbraillon/redditpersona/internal/display"
	"github.com/gauthierbraillon/redditpersona/internal/pipeline"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
	"github.com/gauthierbraillon/redditpersona/internal/report"
)

// version is injected at build time: -ldflags "-X main.version=$(git describe --tags)".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version, then the module version
// recorded by go install, then "dev".
func resolveVersion(v string, bi *debug.BuildInfo) string {
	if v != "" && v != "dev" {
		return v
	}
	if bi != nil && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

func currentVersion() string {
	bi, _ := debug.ReadBuildInfo()
	return resolveVersion(version, bi)
}

// globalOptions holds flags shared by every command.
type globalOptions struct {
	configFile string
	verbose    bool
	quiet      bool
}

// newRootCmd creates the root command for redditpersona CLI.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "redditpersona <profile-url-or-username>",
		Short: "Build a user persona from public Reddit activity",
		Long: `redditpersona reads a Reddit user's public posts and comments and writes a
persona report: top subreddits, interests, traits, behavior, goals and
frustrations, each backed by citations to the source posts.

A bare name that matches a subcommand (serve, config, version, help,
completion) runs that subcommand instead. Use the u/<name> form for those
users, e.g. "redditpersona u/version".

Example usage:
  redditpersona https://www.reddit.com/user/kojied/
  redditpersona u/Hungry-Move-6603 --output-dir reports
  redditpersona spez --max-pages 1 --page-delay 0s`,
		Version:      currentVersion(),
		SilenceUsage: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly one Reddit profile URL or username")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0])
		},
	}

	rootCmd.SetVersionTemplate("redditpersona version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is .redditpersona.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress output")
	flags.String("color", "auto", "colorize output: auto, always, or never")
	flags.String("log-format", "text", "log format: text or json")
	flags.StringP("output-dir", "o", "sample_outputs", "directory for generated reports")
	flags.Int("max-pages", 3, "maximum listing pages to request")
	flags.Int("item-cap", 300, "maximum posts and comments to analyze")
	flags.Int("page-size", 100, "items per listing page (max 100)")
	flags.Duration("page-delay", time.Second, "pause between listing pages")
	flags.String("user-agent", reddit.DefaultUserAgent, "User-Agent sent to Reddit")
	flags.Int("citation-limit", 3, "citations kept per interest and trait")
	flags.String("lexicon", "", "TOML file replacing the built-in keyword dictionaries")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// runGenerate fetches, analyzes and writes the persona for one profile.
func runGenerate(cmd *cobra.Command, opts *globalOptions, input string) error {
	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, opts.verbose, cmd.ErrOrStderr())
	printer, err := newPrinter(cmd, cfg, opts.quiet)
	if err != nil {
		return err
	}

	username, err := reddit.ParseUsername(input)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	printer.Info("Fetching public activity for u/%s...", username)
	outcome, err := p.Run(ctx, username)
	if err != nil {
		return describeError(username, err)
	}

	if outcome.Empty {
		printer.Warning("No public posts or comments found for u/%s", username)
	} else if !printer.IsQuiet() {
		printer.Header(fmt.Sprintf("Persona for u/%s", username))
		display.NewTerminalFormatter().WriteSummary(printer.Out(), outcome.Result)
	}
	if n := len(outcome.Skipped); n > 0 {
		printer.Warning("Skipped %d unusable item(s)", n)
	}

	if printer.IsQuiet() {
		fmt.Fprintln(printer.Out(), outcome.TextPath)
		fmt.Fprintln(printer.Out(), outcome.JSONPath)
		return nil
	}
	printer.Success("Persona report: %s", outcome.TextPath)
	printer.Success("Raw data: %s", outcome.JSONPath)
	return nil
}

// describeError turns pipeline failures into one-line messages for the terminal.
func describeError(username string, err error) error {
	var writeErr *report.WriteError
	switch {
	case errors.Is(err, reddit.ErrUserNotFound):
		return fmt.Errorf("user u/%s not found or has no public profile: %w", username, reddit.ErrUserNotFound)
	case errors.Is(err, reddit.ErrRateLimited):
		return fmt.Errorf("rate limited by Reddit, wait a minute and retry: %w", reddit.ErrRateLimited)
	case errors.As(err, &writeErr):
		return fmt.Errorf("could not save report: %w", writeErr)
	default:
		return err
	}
}

// newPipeline wires the Reddit client, analyzer options and report writer from cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	lex, err := cfg.Lexicon()
	if err != nil {
		return nil, err
	}

	client := reddit.NewClient(
		reddit.WithBaseURL(cfg.Fetch.BaseURL),
		reddit.WithUserAgent(cfg.Fetch.UserAgent),
		reddit.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
	)
	writer := report.NewWriter(cfg.Output.Dir, report.WithInterestLimit(cfg.Analysis.InterestLimit))

	return pipeline.New(client, writer, lex,
		pipeline.WithFetchOptions(cfg.FetchOptions()),
		pipeline.WithAnalysisOptions(cfg.AnalysisOptions()),
		pipeline.WithLogger(logger),
	), nil
}

func newPrinter(cmd *cobra.Command, cfg *config.Config, quiet bool) (*display.Printer, error) {
	mode, err := display.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return nil, err
	}
	return display.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode, quiet), nil
}

// newLogger builds the slog logger; --verbose forces debug level.
func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
