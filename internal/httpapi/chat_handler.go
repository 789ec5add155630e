// ABOUTME: Chat turn endpoint: validation, SSE relay, and non-streaming fallback
// ABOUTME: Also routes pending tool-call resolutions into new turns

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cellchat/cellchat/internal/chat"
	"github.com/cellchat/cellchat/internal/store"
)

type toolResultPayload struct {
	ToolCallID string              `json:"toolCallId"`
	Result     chat.ToolResolution `json:"result"`
}

type chatRequest struct {
	ThreadID    string                 `json:"threadId"`
	Messages    []chat.IncomingMessage `json:"messages"`
	Stream      *bool                  `json:"stream"`
	FileIDs     []string               `json:"fileIds"`
	ToolResults []toolResultPayload    `json:"toolResults"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ThreadID == "" {
		s.writeError(w, http.StatusBadRequest, "threadId is required")
		return
	}

	stream := req.Stream == nil || *req.Stream

	// A tool resolution starts a new turn carrying the user's answer.
	if len(req.ToolResults) > 0 {
		tr := req.ToolResults[0]
		resp, err := s.service.ResolveToolCall(r.Context(), req.ThreadID, tr.ToolCallID, tr.Result)
		if err != nil {
			s.writeTurnError(w, err)
			return
		}
		s.writeTurn(w, r, resp, stream)
		return
	}

	content, err := lastUserText(req.Messages)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.service.SendMessage(r.Context(), chat.SendRequest{
		ThreadID: req.ThreadID,
		Content:  content,
		FileIDs:  req.FileIDs,
	})
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	s.writeTurn(w, r, resp, stream)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	resp, err := s.service.EditMessage(r.Context(), r.PathValue("id"), body.Content)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	s.writeTurn(w, r, resp, true)
}

// writeTurn relays a turn's event stream: as SSE when streaming, otherwise
// as a single JSON body with the accumulated text.
func (s *Server) writeTurn(w http.ResponseWriter, r *http.Request, resp *chat.TurnResponse, stream bool) {
	if stream {
		s.streamEvents(w, resp)
		return
	}

	var text strings.Builder
	var messageID, turnError string
	for ev := range resp.Events {
		switch ev.Type {
		case chat.EventText:
			text.WriteString(ev.Text)
		case chat.EventDone:
			messageID = ev.MessageID
		case chat.EventError:
			turnError = ev.Error
		}
	}

	if turnError != "" {
		s.writeError(w, http.StatusBadGateway, turnError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"threadId":  resp.ThreadID,
		"messageId": messageID,
		"text":      text.String(),
	})
}

// streamEvents relays turn events as SSE frames. The event stream is always
// drained so the turn's finish path runs even if the client goes away.
func (s *Server) streamEvents(w http.ResponseWriter, resp *chat.TurnResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)

	for ev := range resp.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to encode event", "error", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
		if canFlush {
			flusher.Flush()
		}
	}
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, chat.ErrPendingNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// lastUserText extracts the text of the most recent user message.
func lastUserText(messages []chat.IncomingMessage) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			text := messages[i].Content.DisplayText()
			if strings.TrimSpace(text) == "" {
				return "", errors.New("user message content is empty")
			}
			return text, nil
		}
	}
	return "", errors.New("request contains no user message")
}
