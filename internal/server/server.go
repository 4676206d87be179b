// Package server exposes dataset upload and analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// Options configures the HTTP service.
type Options struct {
	Addr string
	// MaxUploadBytes caps request bodies on upload endpoints.
	MaxUploadBytes int64
	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	Dataset        dataset.Options
	Analysis       analysis.Options
	Logger         *slog.Logger
	// Registry receives the service metrics. Nil means a private registry.
	Registry *prometheus.Registry
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		Addr:           "127.0.0.1:8080",
		MaxUploadBytes: 10 << 20,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		CORSOrigins:    []string{"http://localhost:3000"},
		Dataset:        dataset.DefaultOptions(),
		Analysis:       analysis.DefaultOptions(),
	}
}

// Server wires handlers, middleware and metrics.
type Server struct {
	opt     Options
	log     *slog.Logger
	metrics *Metrics
	router  chi.Router
}

// New builds a Server. It does not start listening.
func New(opt Options) *Server {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}
	if opt.Registry == nil {
		opt.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		opt:     opt,
		log:     opt.Logger,
		metrics: NewMetrics(opt.Registry),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(Tracing)
	r.Use(RequestLogger(s.log, s.metrics))
	r.Use(Recoverer(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opt.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opt.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if s.opt.RateLimitRPS > 0 {
			r.Use(NewRateLimiter(s.opt.RateLimitRPS, s.opt.RateLimitBurst, s.log).Handler)
		}
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/upload", s.handleUpload)
		r.Post("/analyze", s.handleAnalyze)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, errMethodNotAllowed)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", slog.String("addr", s.opt.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
