package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kiranze/FPVNoobBot/internal/store"
)

// AuditReader is the read-only slice of the audit store the status
// endpoints need.
type AuditReader interface {
	CountByResult(ctx context.Context) (map[string]int, error)
	RecentOutcomes(ctx context.Context, limit int) ([]store.Outcome, error)
}

// Server exposes the bot's status over HTTP.
type Server struct {
	audit AuditReader
	mux   *http.ServeMux
}

// New creates a new status server.
func New(audit AuditReader) *Server {
	srv := &Server{audit: audit, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return jsonContent(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/outcomes", s.handleOutcomes)
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
