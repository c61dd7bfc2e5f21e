// Package server exposes persona generation over HTTP.
package server

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gauthierbraillon/redditpersona/internal/pipeline"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
	"github.com/gauthierbraillon/redditpersona/internal/report"
)

//go:embed index.html
var indexPage []byte

// Runner runs the persona pipeline for one username.
type Runner interface {
	Run(ctx context.Context, username string) (*pipeline.Outcome, error)
}

// Server wires the HTTP routes to a Runner.
type Server struct {
	echo          *echo.Echo
	runner        Runner
	outputDir     string
	interestLimit int
	metrics       *Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics replaces the collectors, mainly so tests can inspect them.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithInterestLimit sets how many interests the /generate persona lists.
func WithInterestLimit(n int) Option {
	return func(s *Server) {
		s.interestLimit = n
	}
}

// New creates a server. Reports are downloaded from outputDir.
func New(runner Runner, outputDir string, opts ...Option) *Server {
	s := &Server{
		runner:        runner,
		outputDir:     outputDir,
		interestLimit: report.DefaultInterestLimit,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				s.logger.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				s.logger.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/", s.Index)
	e.GET("/health", s.Health)
	e.POST("/generate", s.Generate)
	e.GET("/download/:username", s.Download)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	s.echo = e
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on address until Shutdown is called.
func (s *Server) Start(address string) error {
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Index serves the web form.
func (s *Server) Index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexPage)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

// GenerateRequest is the /generate body. URL may also be a bare username.
type GenerateRequest struct {
	URL string `json:"url"`
}

// Stats summarizes the analyzed activity.
type Stats struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// GenerateResponse is returned on success.
type GenerateResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Persona  string `json:"persona"`
	Stats    Stats  `json:"stats"`
	Empty    bool   `json:"empty"`
}

// ErrorResponse is returned on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Generate runs the pipeline for the submitted profile.
func (s *Server) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.metrics.RecordGeneration("invalid", 0, -1)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	username, err := reddit.ParseUsername(req.URL)
	if err != nil {
		s.metrics.RecordGeneration("invalid", 0, -1)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	start := s.now()
	outcome, err := s.runner.Run(c.Request().Context(), username)
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		status, label := classify(err)
		s.metrics.RecordGeneration(label, elapsed, -1)
		s.logger.WarnContext(c.Request().Context(), "generation failed",
			"username", username,
			"status", status,
			"error", err)
		return c.JSON(status, ErrorResponse{Error: err.Error()})
	}

	// Render from the run's own result. The files on disk may already
	// belong to a concurrent run for the same user.
	text := report.Text(outcome.Result, s.interestLimit)

	label := "success"
	if outcome.Empty {
		label = "empty"
	}
	s.metrics.RecordGeneration(label, elapsed, len(outcome.Records))

	return c.JSON(http.StatusOK, GenerateResponse{
		Success:  true,
		Username: username,
		Persona:  text,
		Stats: Stats{
			Posts:    outcome.Result.PostCount,
			Comments: outcome.Result.CommentCount,
		},
		Empty: outcome.Empty,
	})
}

// Download serves a previously generated text report as an attachment.
func (s *Server) Download(c echo.Context) error {
	username, err := reddit.ParseUsername(c.Param("username"))
	if err != nil {
		s.metrics.DownloadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	textPath, _ := report.Paths(s.outputDir, username)
	if _, err := os.Stat(textPath); err != nil {
		s.metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no report found for u/" + username})
	}

	s.metrics.DownloadsTotal.WithLabelValues("ok").Inc()
	return c.Attachment(textPath, filepath.Base(textPath))
}

// classify maps a pipeline error to an HTTP status and a metrics label.
func classify(err error) (int, string) {
	var netErr *reddit.NetworkError
	switch {
	case errors.Is(err, reddit.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, reddit.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, reddit.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid"
	case errors.As(err, &netErr):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "error"
	}
}
