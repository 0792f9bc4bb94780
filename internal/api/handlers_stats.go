package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis":    s.orchestrator.Stats().Snapshot(),
		"phases":      s.orchestrator.Stats().Phases(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"jobs":        s.orchestrator.JobCount(),
	})
}
