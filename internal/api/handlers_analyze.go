package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/chunker"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
)

type analyzeRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	// Config is pre-filled with the server defaults; fields present in the
	// request override them.
	Config       *chunker.Config `json:"config"`
	Vocabularies []string        `json:"vocabularies"`
	Fragments    []doctree.Table `json:"fragments"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes)

	defaults := s.cfg.ChunkConfig()
	req := analyzeRequest{Config: &defaults}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	opts := s.options(req.Vocabularies, *req.Config)
	opts.Fragments = req.Fragments
	stats := s.orchestrator.Stats()
	timer := stats.StartPhase("")
	opts.Progress = func(ph analysis.Phase) { timer.Next(string(ph)) }

	start := time.Now()
	res, err := analysis.AnalyzeDocument(r.Context(), &doctree.Document{Title: req.Title, Text: req.Text}, opts)
	if err != nil {
		if errors.Is(err, analysis.ErrUnknownVocabulary) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("analysis failed", "error", err)
		jsonError(w, "analysis failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	timer.Stop()
	stats.Record(time.Since(start))

	for _, gw := range res.Warnings {
		s.log.Warn("table group not merged", "table", gw.TableNumber, "fragments", gw.Fragments, "reason", gw.Reason)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVocabularies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"available": patterns.VocabularyNames(),
		"enabled":   s.cfg.Vocabularies,
	})
}

// options builds analysis options from request overrides. Nil vocabularies
// fall back to the server configuration.
func (s *Server) options(vocabularies []string, chunking chunker.Config) analysis.Options {
	if vocabularies == nil {
		vocabularies = s.cfg.Vocabularies
	}
	return analysis.Options{
		Chunking:      chunking,
		Vocabularies:  vocabularies,
		ExtraPatterns: s.extra,
	}
}

// decodeJSON decodes the request body into v, writing the error response
// itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
