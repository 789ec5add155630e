// ABOUTME: Thread and message CRUD endpoints
// ABOUTME: Message listing optionally renders content to HTML via goldmark

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cellchat/cellchat/internal/store"
)

type threadJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageJSON struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	threads, err := s.store.ListThreads(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]threadJSON, 0, len(threads))
	for _, t := range threads {
		out = append(out, threadJSON{ID: t.ID, Title: t.Title, CreatedAt: t.CreatedAt})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"threads": out})
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	thread, err := s.store.CreateThread(r.Context(), body.Title)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, threadJSON{ID: thread.ID, Title: thread.Title, CreatedAt: thread.CreatedAt})
}

func (s *Server) handleRenameThread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := s.store.RenameThread(r.Context(), r.PathValue("id"), body.Title); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteThread(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	if _, err := s.store.GetThread(r.Context(), threadID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	asHTML := r.URL.Query().Get("format") == "html"

	messages, err := s.store.ListMessages(r.Context(), threadID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		mj := messageJSON{
			ID:        m.ID,
			ThreadID:  m.ThreadID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		if asHTML {
			html, err := renderMarkdown(m.Content)
			if err != nil {
				s.logger.Warn("markdown rendering failed", "message_id", m.ID, "error", err)
			} else {
				mj.HTML = html
			}
		}
		out = append(out, mj)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMessage(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePurgeMessages bulk-deletes every message in a thread created
// strictly after the named message.
func (s *Server) handlePurgeMessages(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")

	var body struct {
		AfterID string `json:"afterId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.AfterID == "" {
		s.writeError(w, http.StatusBadRequest, "afterId is required")
		return
	}

	anchor, err := s.store.GetMessage(r.Context(), body.AfterID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if anchor.ThreadID != threadID {
		s.writeError(w, http.StatusBadRequest, "afterId does not belong to this thread")
		return
	}

	deleted, err := s.store.DeleteMessagesAfter(r.Context(), threadID, anchor.CreatedAt)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
