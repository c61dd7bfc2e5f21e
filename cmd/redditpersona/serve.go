package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/redditpersona/internal/config"
	"github.com/gauthierbraillon/redditpersona/internal/server"
	"github.com/gauthierbraillon/redditpersona/pkg/browser"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var openBrowser bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve persona generation over HTTP",
		Long: `Start an HTTP server with a small web form and a JSON API.

Routes:
  GET  /                     web form
  GET  /health               liveness probe
  POST /generate             {"url": "<profile-url-or-username>"}
  GET  /download/<username>  previously generated text report
  GET  /metrics              Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd, opts, cfg, openBrowser)
		},
	}

	cmd.Flags().IntP("port", "p", 5000, "port to listen on")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "open the web form in the default browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, cfg *config.Config, openBrowser bool) error {
	logger := newLogger(cfg.Logging, opts.verbose, cmd.ErrOrStderr())
	printer, err := newPrinter(cmd, cfg, opts.quiet)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(p, cfg.Output.Dir,
		server.WithInterestLimit(cfg.Analysis.InterestLimit),
		server.WithLogger(logger),
	)
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting server", "address", address, "output_dir", cfg.Output.Dir)
	printer.Info("Listening on http://localhost:%d", cfg.Server.Port)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(address)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if openBrowser {
		if err := browser.Open(browser.LocalURL(cfg.Server.Port, "/")); err != nil {
			printer.Warning("Could not open browser: %v", err)
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("server exited")
	return nil
}
