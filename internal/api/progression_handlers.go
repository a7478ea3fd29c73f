package api

import (
	"net/http"
	"strconv"
	"time"

	"studycore/internal/errors"
	"studycore/internal/models"
)

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Progression.Overview(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleResetProgression(w http.ResponseWriter, r *http.Request) {
	if err := s.Progression.ResetGamification(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.StatsFilter{
		SubjectID: q.Get("subject"),
		Type:      q.Get("type"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handleError(w, r, errors.NewValidationError("since", "must be RFC3339"))
			return
		}
		filter.Since = &since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			handleError(w, r, errors.NewValidationError("limit", "must be an integer"))
			return
		}
		filter.Limit = limit
	}

	records, err := s.Progression.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// handleSyncDrain is the "connectivity restored" trigger: it re-enqueues a
// push for every record still marked unsynced.
func (s *Server) handleSyncDrain(w http.ResponseWriter, r *http.Request) {
	enqueued, err := s.SyncQueue.DrainUnsynced(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enqueued": enqueued})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"memory_only": s.MemoryOnly,
	})
}
