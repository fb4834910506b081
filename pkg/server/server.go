// Package server exposes the dashboard session over an HTTP API: read
// the rendered dashboard, add and remove locations, set or clear the
// custom reference time, and toggle the theme. A cron schedule keeps
// weather snapshots fresh in the background.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/tzdash/tzdash/pkg/session"
)

// Server serves the dashboard HTTP API for a single session.
type Server struct {
	logger      *slog.Logger
	session     *session.Session
	listen      string
	refreshSpec string
	router      chi.Router
}

// New creates a Server. refreshSpec is a cron expression for the
// background weather refresh; empty disables it.
func New(logger *slog.Logger, sess *session.Session, listen, refreshSpec string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:      logger,
		session:     sess,
		listen:      listen,
		refreshSpec: refreshSpec,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/search", s.handleSearch)
		r.Post("/locations", s.handleAddLocation)
		r.Delete("/locations/{id}", s.handleRemoveLocation)
		r.Post("/time", s.handleSetTime)
		r.Delete("/time", s.handleResetTime)
		r.Post("/theme/toggle", s.handleToggleTheme)
	})
	s.router = r

	return s
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down
// gracefully. The weather refresh cron runs for the same lifetime.
func (s *Server) Run(ctx context.Context) error {
	var c *cron.Cron
	if s.refreshSpec != "" {
		c = cron.New()
		if _, err := c.AddFunc(s.refreshSpec, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.session.RefreshWeather(refreshCtx)
		}); err != nil {
			s.logger.Warn("invalid refresh schedule, weather refresh disabled",
				"spec", s.refreshSpec, "error", err)
		} else {
			c.Start()
			defer c.Stop()
		}
	}

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard API listening", "addr", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// requestLogger logs each request as a structured line: method, path,
// status, duration and chi's request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
