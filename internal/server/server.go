// Package server exposes the diagram pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/v1/workflows?limit=
//	GET  /api/v1/workflows/{id}/diagram?engine=&direction=&hints=
//	GET  /api/v1/workflows/{id}/diagram.svg
//	POST /api/v1/diagrams   (workflow JSON → diagram JSON)
//	POST /api/v1/hints      ({nodes, edges} → {edges, hints})
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// status from errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/wfdiagram/pkg/pipeline"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// maxBodyBytes caps request bodies for POST endpoints.
const maxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string

	// Defaults are the pipeline options requests start from; query
	// parameters override engine, direction and hints.
	Defaults pipeline.Options
}

// Server manages the HTTP server and routes.
type Server struct {
	runner *pipeline.Runner
	source source.Source // nil disables the workflow routes
	logger *log.Logger
	opts   Options
	router chi.Router
	server *http.Server
}

// New creates a server. src may be nil when only the stateless POST routes
// are needed.
func New(runner *pipeline.Runner, src source.Source, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		source: src,
		logger: logger,
		opts:   opts,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.opts.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.With(observe("/api/v1/workflows")).Get("/workflows", s.handleListWorkflows)
		r.With(observe("/api/v1/workflows/{id}/diagram")).Get("/workflows/{id}/diagram", s.handleWorkflowDiagram)
		r.With(observe("/api/v1/workflows/{id}/diagram.svg")).Get("/workflows/{id}/diagram.svg", s.handleWorkflowSVG)
		r.With(observe("/api/v1/diagrams")).Post("/diagrams", s.handleCreateDiagram)
		r.With(observe("/api/v1/hints")).Post("/hints", s.handleHints)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
