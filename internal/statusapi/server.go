// Package statusapi exposes the live session view over a small read-only
// HTTP surface, for overlays and local dashboards.
package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/session"
	"github.com/ohmyhungrygod/gameclient/internal/store"
)

// Snapshotter provides the current session view.
type Snapshotter interface {
	Snapshot() session.View
}

// Server serves the status endpoints.
type Server struct {
	snap Snapshotter
	hist store.SessionStore // optional, may be nil
}

// New creates a status server. hist may be nil to disable the history route.
func New(snap Snapshotter, hist store.SessionStore) *Server {
	return &Server{snap: snap, hist: hist}
}

// Handler returns the HTTP handler with permissive CORS for local overlay
// pages.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/history", s.handleHistory)
	return cors.Default().Handler(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.snap.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.hist == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	recs, err := s.hist.ListSessions(50)
	if err != nil {
		log.Error().Err(err).Msg("failed to list session history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode status response")
	}
}
