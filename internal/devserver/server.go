// Package devserver is a local stand-in for the budgeting service. It
// serves the same JSON contract over a bbolt store so the client can run
// and be tested without the real backend.
package devserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultToken is the bearer token accepted when none is configured.
const DefaultToken = "dev-token"

// Server serves the budgeting API against a local store.
type Server struct {
	store    *Store
	fixtures *Fixtures
	token    string
	logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithToken sets the bearer token requests must carry.
func WithToken(token string) ServerOption {
	return func(s *Server) { s.token = token }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server over store using fx for bootstrap data and the
// seed-defaults template.
func New(store *Store, fx *Fixtures, opts ...ServerOption) *Server {
	s := &Server{
		store:    store,
		fixtures: fx,
		token:    DefaultToken,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP handler. The API is mounted under /app/v1 to
// match the production path layout; /health stays unauthenticated.
func (s *Server) Handler() http.Handler {
	goals := &goalsHandler{store: s.store}
	accounts := &accountsHandler{store: s.store}
	categories := &categoriesHandler{store: s.store, template: s.fixtures.Categories}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/app/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", goals.List)
			r.Post("/", goals.Create)
			r.Put("/{id}", goals.Update)
			r.Delete("/{id}", goals.Delete)
		})

		r.Route("/simplefin", func(r chi.Router) {
			r.Get("/items", accounts.ListItems)
			r.Get("/accounts/{itemID}", accounts.ListItemAccounts)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/seed-defaults", categories.SeedDefaults)
			r.Get("/tree", categories.Tree)
			r.Post("/{categoryID}/subcategories", categories.CreateSubcategory)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// requireAuth validates the bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] != s.token {
			writeDetail(w, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request through the structured logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes an error in the service's {"detail": "..."} shape.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
