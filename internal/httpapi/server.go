// ABOUTME: HTTP API server exposing chat, thread, and message endpoints
// ABOUTME: Streams turn events as SSE and renders message history as JSON or HTML

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cellchat/cellchat/internal/chat"
	"github.com/cellchat/cellchat/internal/store"
)

// Server is the HTTP API surface.
type Server struct {
	store   store.Store
	service *chat.Service
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer wires all routes.
func NewServer(st store.Store, service *chat.Service, logger *slog.Logger) *Server {
	s := &Server{
		store:   st,
		service: service,
		logger:  logger.With("component", "httpapi"),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/chat", s.handleChat)

	s.mux.HandleFunc("GET /api/threads", s.handleListThreads)
	s.mux.HandleFunc("POST /api/threads", s.handleCreateThread)
	s.mux.HandleFunc("PATCH /api/threads/{id}", s.handleRenameThread)
	s.mux.HandleFunc("DELETE /api/threads/{id}", s.handleDeleteThread)

	s.mux.HandleFunc("GET /api/threads/{id}/messages", s.handleListMessages)
	s.mux.HandleFunc("POST /api/threads/{id}/messages/purge", s.handlePurgeMessages)
	s.mux.HandleFunc("PATCH /api/messages/{id}", s.handleEditMessage)
	s.mux.HandleFunc("DELETE /api/messages/{id}", s.handleDeleteMessage)

	return s
}

// Handler returns the root handler for the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
