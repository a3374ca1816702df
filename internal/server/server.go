// Package server exposes statement analysis over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/internal/watch"
	"golang.org/x/sync/errgroup"
)

// Reloader rebuilds the service after a schema file changes.
type Reloader func(ctx context.Context) (*service.Service, error)

// Config holds configuration for the server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	Service           *service.Service
	// WatchPaths are schema files or directories. When set together with
	// Reload, changes to *.sql files below them rebuild the service.
	WatchPaths []string
	Reload     Reloader
	Logger     *slog.Logger
}

// Server serves the analysis API.
type Server struct {
	svc               atomic.Pointer[service.Service]
	addr              string
	readHeaderTimeout time.Duration
	watchPaths        []string
	reload            Reloader
	logger            *slog.Logger
}

// New creates a server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Server{
		addr:              cfg.Addr,
		readHeaderTimeout: timeout,
		watchPaths:        cfg.WatchPaths,
		reload:            cfg.Reload,
		logger:            logger,
	}
	s.svc.Store(cfg.Service)
	return s
}

// Service returns the service currently answering requests.
func (s *Server) Service() *service.Service {
	return s.svc.Load()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/batch", s.handleBatch)
		r.Post("/normalize", s.handleNormalize)
		r.Get("/schema", s.handleSchema)
		r.Get("/schema/{table}", s.handleTable)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	if len(s.watchPaths) > 0 && s.reload != nil {
		eg.Go(func() error {
			return watch.Run(egctx, s.watchPaths, func(name string) {
				s.Reload(egctx, name)
			}, watch.Options{Logger: s.logger})
		})
	}

	eg.Go(func() error {
		s.logger.Info("starting server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Reload rebuilds the service. A failed reload keeps the previous one.
func (s *Server) Reload(ctx context.Context, changed string) {
	if s.reload == nil {
		return
	}
	s.logger.Info("schema changed, reloading", "file", changed)
	svc, err := s.reload(ctx)
	if err != nil {
		s.logger.Error("schema reload failed", "error", err)
		return
	}
	s.svc.Store(svc)
	s.logger.Info("schema reloaded", "tables", svc.Catalog().Len())
}
