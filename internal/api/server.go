package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/patterns"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

// Server is the HTTP API server for docstruct.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	extra        []patterns.SectionPattern
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. Extra section patterns
// are applied to every analysis on top of the configured vocabularies.
func NewServer(orch *pipeline.Orchestrator, extra []patterns.SectionPattern, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		extra:        extra,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocstructAPIKey, s.log))

		r.Post("/api/analyze", s.handleAnalyze)
		r.Get("/api/vocabularies", s.handleVocabularies)

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/ingest/{jobID}/result", s.handleIngestResult)

		r.Post("/api/tables/merge", s.handleTablesMerge)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
