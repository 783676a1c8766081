package api

import (
	"net/http"
	"strconv"

	"github.com/kiranze/FPVNoobBot/internal/store"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/stats returns outcome counts grouped by result.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.audit.CountByResult(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count outcomes")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// GET /api/outcomes returns the newest outcomes, newest first. The
// limit query parameter caps the page at 200, defaulting to 50.
func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > 200 {
		limit = 200
	}

	outcomes, err := s.audit.RecentOutcomes(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list outcomes")
		return
	}
	if outcomes == nil {
		outcomes = []store.Outcome{}
	}
	writeJSON(w, http.StatusOK, outcomes)
}
