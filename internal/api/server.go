// Package api exposes a read-only HTTP view of the running arena and each
// agent's learned memory. GET only — observation, never mutation.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/talgya/hindsight/internal/arena"
)

// Server serves arena and memory state over HTTP.
type Server struct {
	Arena *arena.Arena
	Port  int
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentMemory)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("debug API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Arena.Status())
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Arena.AgentViews())
}

// handleAgentMemory serves GET /api/v1/agent/{id}/memory — the full memory
// snapshot of one agent, built from the engine's read-only accessor.
func (s *Server) handleAgentMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	id, rest, found := strings.Cut(path, "/")
	if !found || rest != "memory" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	snap, ok := s.Arena.MemorySnapshot(id)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
