package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harborapp/harbor/internal/events"
	"github.com/harborapp/harbor/internal/inbox"
)

type Server struct {
	router *chi.Mux
	http   *http.Server
	inbox  *inbox.Service
	events *events.Publisher
	logger *slog.Logger
}

func NewServer(port int, inboxSvc *inbox.Service, pub *events.Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		http:   &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router},
		inbox:  inboxSvc,
		events: pub,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/import", s.handleImport)
		r.Post("/share", s.handleShare)
		r.Route("/inbox", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Get("/{id}", s.getItem)
			r.Patch("/{id}", s.patchItem)
			r.Delete("/{id}", s.deleteItem)
		})
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ctx. Start returns http.ErrServerClosed afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, format string, args ...any) {
	respondJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
