// Package server exposes the lineage explorer over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /data                      run a query, return {columns, rows}
//	POST   /sessions                  run a query and open an explorer
//	GET    /sessions/{id}/graph       positioned graph
//	GET    /sessions/{id}/dot         Graphviz DOT of the graph
//	GET    /sessions/{id}/columns     columns of the loaded result
//	PUT    /sessions/{id}/hierarchy   apply {keys}
//	POST   /sessions/{id}/click       toggle by {label, level} or {id}
//	POST   /sessions/{id}/query       run a new query in the session
//	DELETE /sessions/{id}
//	GET    /settings
//	GET    /settings/{user}
//	PUT    /settings/{user}
//	DELETE /settings/{user}
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/query"
	"github.com/matzehuels/lineage/pkg/session"
	"github.com/matzehuels/lineage/pkg/settings"
)

const (
	maxBodySize     = 1 << 20
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

// Options holds the server's collaborators. Fetcher is required; Sessions
// defaults to an in-memory store and Settings may be nil, which disables the
// settings routes.
type Options struct {
	Fetcher  query.Fetcher
	Sessions session.Store
	Settings settings.Store
	Layout   layout.Options
	Logger   *log.Logger

	// SessionTTL is the idle timeout of new sessions.
	SessionTTL time.Duration

	// Counters, if set, is reported by /healthz. The caller registers its
	// hooks.
	Counters *observability.Counters
}

// Server is the HTTP API.
type Server struct {
	router   chi.Router
	fetcher  query.Fetcher
	sessions session.Store
	settings settings.Store
	layout   layout.Options
	logger   *log.Logger
	counters *observability.Counters

	sessionTTL time.Duration
}

// New creates a server with all routes configured.
func New(opts Options) *Server {
	s := &Server{
		fetcher:  opts.Fetcher,
		sessions: opts.Sessions,
		settings: opts.Settings,
		layout:   opts.Layout,
		logger:   opts.Logger,
		counters: opts.Counters,

		sessionTTL: opts.SessionTTL,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = session.DefaultTTL
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore(s.sessionTTL)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.layout == (layout.Options{}) {
		s.layout = layout.DefaultOptions()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/data", s.handleData)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/graph", s.handleGraph)
			r.Get("/dot", s.handleDOT)
			r.Get("/columns", s.handleColumns)
			r.Put("/hierarchy", s.handleHierarchy)
			r.Post("/click", s.handleClick)
			r.Post("/query", s.handleQuery)
		})
	})

	if s.settings != nil {
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleListSettings)
			r.Get("/{user}", s.handleGetSettings)
			r.Put("/{user}", s.handleSaveSettings)
			r.Delete("/{user}", s.handleDeleteSettings)
		})
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are swept in the background meanwhile.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go session.RunCleanup(cleanupCtx, s.sessions, cleanupInterval, func(n int) {
		s.logger.Debug("expired sessions removed", "count", n)
	})

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
