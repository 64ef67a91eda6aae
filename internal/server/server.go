// Package server serves the demo pages and the demo scheduling API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/scheduler"
)

type Options struct {
	AllowedOrigins []string
	// InteractivePath is the always-available app linked from error pages.
	InteractivePath string
}

type Server struct {
	loader *demo.Loader
	sched  *scheduler.Scheduler
	opts   Options
	pages  pageSet
	mux    *http.ServeMux
}

func New(loader *demo.Loader, sched *scheduler.Scheduler, opts Options) (*Server, error) {
	if opts.InteractivePath == "" {
		opts.InteractivePath = constants.DefaultInteractivePath
	}
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	s := &Server{
		loader: loader,
		sched:  sched,
		opts:   opts,
		pages:  pages,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleLiveness)
	s.mux.HandleFunc("GET /api/demo/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/demo/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /demo/{page}", s.handlePage)
	s.mux.HandleFunc("GET /demo", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/demo/overview", http.StatusFound)
	})
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/demo/overview", http.StatusFound)
	})
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return requestLogger(recoverer(c.Handler(s.mux)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": constants.Version})
}
