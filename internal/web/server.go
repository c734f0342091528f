// Package web provides the read-only HTTP preview of reorganization plans.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/natashamoorfield/npm-npadb-admin/internal/config"
	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	weblog "github.com/natashamoorfield/npm-npadb-admin/internal/web/middleware"
)

// Planner dry-runs a year's reorganization. Satisfied by *lgro.Planner.
type Planner interface {
	Plan(ctx context.Context, year int) (*lgro.Event, lgro.Summary, error)
}

// TableCounter reports gazetteer row counts. Satisfied by *gazetteer.Store.
type TableCounter interface {
	TableCounts(ctx context.Context) ([]gazetteer.TableCount, error)
}

// Pinger checks the database is reachable. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server reads from.
type Deps struct {
	Planner  Planner
	Tables   TableCounter
	DB       Pinger
	Gatherer prometheus.Gatherer // nil disables /metrics
}

// Server is the plan preview server.
type Server struct {
	deps   Deps
	cfg    config.ServerConfig
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(deps Deps, cfg config.ServerConfig) *Server {
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/lgro/{year}", s.handlePlanPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/lgro/{year}", s.handlePlanJSON)
		r.Get("/tables", s.handleTables)
	})

	if s.deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

var errBadYear = errors.New("year must be a positive whole number")

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		return 0, errBadYear
	}
	return year, nil
}

// statusFor maps plan errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadYear):
		return http.StatusBadRequest
	case errors.Is(err, lgro.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, lgro.ErrDatasetMalformed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Tables.TableCounts(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
