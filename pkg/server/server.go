// Package server exposes stored trees, layouts, exports and live viewer
// sessions over HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/trees
//	POST   /api/trees
//	GET    /api/trees/{id}
//	DELETE /api/trees/{id}
//	GET    /api/trees/{id}/layout
//	GET    /api/trees/{id}/export/{format}
//	POST   /api/sessions
//	GET    /api/sessions/{id}/frame
//	POST   /api/sessions/{id}/zoom
//	POST   /api/sessions/{id}/pointer
//	POST   /api/sessions/{id}/mode
//	POST   /api/sessions/{id}/up
//	POST   /api/sessions/{id}/resize
//	POST   /api/sessions/{id}/drill
//	DELETE /api/sessions/{id}
//
// Errors are JSON objects {"error": message, "code": CODE} with the status
// given by errors.HTTPStatus.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gitscroll/pkg/anim"
	"github.com/matzehuels/gitscroll/pkg/pipeline"
	"github.com/matzehuels/gitscroll/pkg/session"
	"github.com/matzehuels/gitscroll/pkg/store"
)

// Defaults for Config.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultCleanupInterval = time.Minute
	maxBodyBytes           = 1 << 20
)

// Config wires the server's dependencies.
type Config struct {
	Addr     string
	Runner   *pipeline.Runner
	Store    store.Store
	Sessions *session.Manager

	// Metrics is served at /metrics when set.
	Metrics http.Handler
	Logger  *log.Logger

	// AnimationDuration is the zoom transition length of new sessions.
	AnimationDuration time.Duration

	// AllowLocal lets POST /api/trees scan directories on the server's
	// filesystem. Off by default; only repository URLs are accepted.
	AllowLocal bool
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	logger *log.Logger
}

// New fills in defaults and returns a server. Runner and Store are required.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil || cfg.Store == nil {
		return nil, stderrors.New("server: runner and store are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewManager()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = anim.DefaultDuration
	}
	return &Server{cfg: cfg, logger: cfg.Logger}, nil
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.handleListTrees)
			r.Post("/", s.handleCreateTree)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTree)
				r.Delete("/", s.handleDeleteTree)
				r.Get("/layout", s.handleLayout)
				r.Get("/export/{format}", s.handleExport)
			})
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.handleDeleteSession)
				r.Get("/frame", s.handleFrame)
				r.Post("/zoom", s.handleZoom)
				r.Post("/pointer", s.handlePointer)
				r.Post("/mode", s.handleMode)
				r.Post("/up", s.handleUp)
				r.Post("/resize", s.handleResize)
				r.Post("/drill", s.handleDrill)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Expired sessions are swept in the background while it runs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.cfg.Sessions.Run(sweepCtx, DefaultCleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
