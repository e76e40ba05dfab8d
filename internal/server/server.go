// Package server wires configuration, storage and handlers into an echo server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/snackpdf/converter/internal/api"
	"github.com/snackpdf/converter/internal/config"
	"github.com/snackpdf/converter/internal/converter"
	"github.com/snackpdf/converter/internal/history"
	"github.com/snackpdf/converter/internal/jobs"
	"github.com/snackpdf/converter/internal/storage"
	"github.com/snackpdf/converter/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Server is the conversion HTTP server.
type Server struct {
	cfg     *config.AppConfig
	echo    *echo.Echo
	http    *http.Server
	store   *storage.LocalStore
	jobs    *jobs.Manager
	history *history.Store
	logger  *slog.Logger
}

// New builds the server from cfg. The history database is optional: when it
// cannot be opened the server runs without history.
func New(cfg *config.AppConfig, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStore(cfg.Storage.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		jobs:   jobs.NewManager(logger),
		logger: logger,
	}

	var rec history.Recorder
	if hs, err := history.Open(cfg.Storage.HistoryDatabase, logger); err != nil {
		logger.Warn("conversion history disabled", "path", cfg.Storage.HistoryDatabase, "error", err)
	} else {
		s.history = hs
		rec = hs
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e)
	s.useMiddleware(e)

	handlers := api.NewHandlers(&api.Dependencies{
		Converter:   converter.CreateDefaultManager(),
		Store:       store,
		Jobs:        s.jobs,
		History:     rec,
		UploadLimit: cfg.UploadLimitMB,
		AllowDelete: cfg.Security.AllowFileDeletion,
		Version:     version,
		Logger:      logger,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		}
	}

	s.echo = e
	s.http = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) useMiddleware(e *echo.Echo) {
	cfg := s.cfg

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Logging.RequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))

	// Conversions, downloads and the job feed run as long as they need to
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		Skipper: func(c echo.Context) bool {
			return streamsOrConverts(c.Request().URL.Path)
		},
		ErrorMessage: "Request timeout",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return streamsOrConverts(c.Request().URL.Path)
		},
	}))

	// The per-route limits are enforced by the handlers with their own message
	maxMB := cfg.Limits.MaxUploadMB
	if cfg.Limits.MaxHTMLUploadMB > maxMB {
		maxMB = cfg.Limits.MaxHTMLUploadMB
	}
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxMB+1)))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition, api.HeaderJobID, api.HeaderFileID},
		}))
	}
}

func streamsOrConverts(path string) bool {
	return api.IsConversionRoute(path) ||
		strings.HasSuffix(path, "/download") ||
		strings.HasPrefix(path, "/api/ws/")
}

// Cleanup removes expired PDFs and settled jobs.
func (s *Server) Cleanup() {
	retention := s.cfg.Retention()
	if retention <= 0 {
		return
	}
	removed, err := s.store.CleanupOlderThan(retention)
	if err != nil {
		s.logger.Warn("output cleanup failed", "error", err)
	}
	jobsRemoved := s.jobs.CleanupOldJobs(retention)
	if removed > 0 || jobsRemoved > 0 {
		s.logger.Info("cleanup", "files", removed, "jobs", jobsRemoved)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}

// Close releases the history database.
func (s *Server) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// PrintBanner writes the startup banner.
func (s *Server) PrintBanner(w io.Writer, version, buildTime, configPath string) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║           snackpdf Conversion Server                      ║\n")
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Version:    %-45s║\n", version)
	fmt.Fprintf(w, "║  Build Time: %-45s║\n", buildTime)
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Config:    %-46s║\n", configPath)
	fmt.Fprintf(w, "║  Listen:    http://%-39s║\n", s.cfg.GetServerAddr())
	fmt.Fprintf(w, "║  Outputs:   %-46s║\n", s.cfg.Storage.OutputDirectory)
	fmt.Fprintf(w, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(w, "\n")
}
