// ABOUTME: Generation orchestrator driving streaming turns with tool calls
// ABOUTME: Owns the confirmation handshake: pending calls end a turn and resolve via a new one

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cellchat/cellchat/internal/llm"
	"github.com/cellchat/cellchat/internal/store"
	"github.com/cellchat/cellchat/internal/tools"
	"github.com/cellchat/cellchat/internal/uploads"
)

// ErrPendingNotFound is returned when resolving an unknown or expired tool call
var ErrPendingNotFound = errors.New("pending tool call not found")

// maxToolRounds bounds how many model round-trips one turn may take.
const maxToolRounds = 8

const systemPrompt = "You are cellchat, an assistant that helps the user work with a " +
	"tabular workbook. Use the provided tools to read ranges, inspect formulas, and " +
	"update cells. Always ask for confirmation via confirm_action before changing data."

// PendingCall is a suspended mutating tool call awaiting user resolution.
// Pending calls live in memory only and are keyed by tool-call id.
type PendingCall struct {
	ThreadID  string
	Call      llm.ToolCall
	Text      string // assistant text streamed before the suspension
	CreatedAt time.Time
}

// SendRequest is one triggering user message.
type SendRequest struct {
	ThreadID string
	Content  string
	FileIDs  []string
}

// ToolResolution is the user's answer to a pending tool call.
type ToolResolution struct {
	Confirmed bool   `json:"confirmed"`
	ActionID  string `json:"actionId,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// TurnResponse hands the caller the identifiers settled before generation
// started plus the live event stream. Events is closed when the turn ends.
type TurnResponse struct {
	ThreadID      string
	UserMessageID string
	Events        <-chan Event
}

// Service orchestrates generation turns over the store, tool registry,
// model client, and upload store.
type Service struct {
	store    store.Store
	registry *tools.Registry
	client   llm.Client
	uploads  uploads.Store
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*PendingCall
}

// NewService wires the orchestrator.
func NewService(st store.Store, registry *tools.Registry, client llm.Client, up uploads.Store, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		registry: registry,
		client:   client,
		uploads:  up,
		logger:   logger.With("component", "chat"),
		pending:  make(map[string]*PendingCall),
	}
}

// SendMessage starts one generation turn. The user message is persisted
// before generation begins; an empty ThreadID creates a new thread. Tools
// are attached only when the message text contains an @ item reference.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (*TurnResponse, error) {
	thread, err := s.resolveThread(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}

	// Persist-first: the user message is durable before the model runs.
	userMsg, err := s.store.SaveMessage(ctx, thread.ID, store.RoleUser, req.Content)
	if err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	if thread.Title == "" {
		title := generateTitle(req.Content)
		if err := s.store.RenameThread(ctx, thread.ID, title); err != nil {
			s.logger.Warn("failed to set thread title", "thread_id", thread.ID, "error", err)
		}
	}

	history, err := s.buildHistory(ctx, thread.ID, req.FileIDs)
	if err != nil {
		return nil, err
	}

	withTools := strings.Contains(req.Content, "@")

	events := make(chan Event, 64)
	go s.runTurn(ctx, thread.ID, history, withTools, "", events)

	return &TurnResponse{ThreadID: thread.ID, UserMessageID: userMsg.ID, Events: events}, nil
}

// ResolveToolCall answers a pending tool call and starts a new generation
// turn carrying the tool result. Confirmed cell updates re-execute with the
// confirmed flag injected; cancellations feed a structured cancellation
// result back to the model. The pending record is consumed either way.
func (s *Service) ResolveToolCall(ctx context.Context, threadID, toolCallID string, res ToolResolution) (*TurnResponse, error) {
	s.mu.Lock()
	pending, ok := s.pending[toolCallID]
	if ok {
		delete(s.pending, toolCallID)
	}
	s.mu.Unlock()

	if !ok || pending.ThreadID != threadID {
		return nil, fmt.Errorf("%w: %s", ErrPendingNotFound, toolCallID)
	}

	var result json.RawMessage
	switch {
	case res.Cancelled || !res.Confirmed:
		result = mustMarshal(map[string]any{
			"status":    "cancelled",
			"action_id": res.ActionID,
			"message":   "The user cancelled the action. Do not retry it unless asked.",
		})
	case pending.Call.Name == tools.NameCellUpdate:
		args, err := injectConfirmed(pending.Call.Args)
		if err != nil {
			return nil, fmt.Errorf("rebuilding confirmed arguments: %w", err)
		}
		result = s.registry.Execute(ctx, pending.Call.Name, args)
	default:
		result = mustMarshal(map[string]any{
			"status":    "confirmed",
			"action_id": res.ActionID,
			"message":   "The user confirmed the action. Proceed.",
		})
	}

	history, err := s.buildHistory(ctx, threadID, nil)
	if err != nil {
		return nil, err
	}

	// Replay the suspended exchange so the model sees its own call answered.
	history = append(history,
		llm.ChatMessage{Role: llm.RoleAssistant, Content: pending.Text, ToolCalls: []llm.ToolCall{pending.Call}},
		llm.ChatMessage{Role: llm.RoleTool, Content: string(result), ToolCallID: pending.Call.ID},
	)

	events := make(chan Event, 64)
	go func() {
		s.emit(ctx, events, Event{
			Type:       EventToolResult,
			ToolCallID: pending.Call.ID,
			ToolName:   pending.Call.Name,
			Result:     result,
		})
		s.runTurn(ctx, threadID, history, true, pending.Text, events)
	}()

	return &TurnResponse{ThreadID: threadID, Events: events}, nil
}

// PendingCalls lists unresolved tool calls for a thread, oldest first.
func (s *Service) PendingCalls(threadID string) []PendingCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PendingCall
	for _, p := range s.pending {
		if p.ThreadID == threadID {
			out = append(out, *p)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (s *Service) resolveThread(ctx context.Context, threadID string) (*store.Thread, error) {
	if threadID == "" {
		thread, err := s.store.CreateThread(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("creating thread: %w", err)
		}
		return thread, nil
	}
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("resolving thread %s: %w", threadID, err)
	}
	return thread, nil
}

// buildHistory assembles model-facing history: the system prompt, the
// attachment context (if any), then every persisted message in order.
func (s *Service) buildHistory(ctx context.Context, threadID string, fileIDs []string) ([]llm.ChatMessage, error) {
	history := []llm.ChatMessage{{Role: llm.RoleSystem, Content: systemPrompt}}

	if len(fileIDs) > 0 {
		attachments, err := uploads.BuildContext(ctx, s.uploads, fileIDs)
		if err != nil {
			return nil, err
		}
		if attachments != "" {
			history = append(history, llm.ChatMessage{Role: llm.RoleSystem, Content: attachments})
		}
	}

	messages, err := s.store.ListMessages(ctx, threadID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	for _, m := range messages {
		history = append(history, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}

	return history, nil
}

// runTurn drives the round loop: stream a completion, execute any tool
// calls, feed results back, repeat. A needs_confirmation result records a
// pending call and ends the turn. The accumulated assistant text is
// persisted on the finish path with a detached context, so a client
// disconnect yields fully-persisted-or-absent, never partial.
func (s *Service) runTurn(ctx context.Context, threadID string, history []llm.ChatMessage, withTools bool, priorText string, events chan<- Event) {
	defer close(events)

	req := llm.ChatRequest{Messages: history}
	if withTools {
		req.Tools = s.registry.Definitions()
	}

	var full strings.Builder
	full.WriteString(priorText)

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.client.StreamChat(ctx, req, func(delta string) {
			s.emit(ctx, events, Event{Type: EventText, Text: delta})
		})
		if err != nil {
			s.logger.Error("generation failed", "thread_id", threadID, "error", err)
			s.emit(ctx, events, Event{Type: EventError, Error: err.Error()})
			return
		}

		full.WriteString(resp.Content)

		if len(resp.ToolCalls) == 0 {
			break
		}

		req.Messages = append(req.Messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		suspended := false
		for _, call := range resp.ToolCalls {
			s.emit(ctx, events, Event{
				Type:       EventToolCall,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Args:       json.RawMessage(call.Args),
			})

			if tools.NeedsConfirmation(call.Name, call.Args) {
				s.mu.Lock()
				s.pending[call.ID] = &PendingCall{
					ThreadID:  threadID,
					Call:      call,
					Text:      full.String(),
					CreatedAt: time.Now(),
				}
				s.mu.Unlock()

				result := s.registry.Execute(ctx, call.Name, call.Args)
				s.emit(ctx, events, Event{
					Type:       EventConfirmationRequired,
					ToolCallID: call.ID,
					ToolName:   call.Name,
					Result:     result,
				})
				suspended = true
				continue
			}

			result := s.registry.Execute(ctx, call.Name, call.Args)
			s.emit(ctx, events, Event{
				Type:       EventToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Result:     result,
			})
			req.Messages = append(req.Messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    string(result),
				ToolCallID: call.ID,
			})
		}

		if suspended {
			// Turn ends here; resolution arrives as a new generation request.
			s.emit(ctx, events, Event{Type: EventDone, ThreadID: threadID})
			return
		}
	}

	s.finishTurn(ctx, threadID, full.String(), events)
}

// finishTurn persists the assistant message (non-empty text only) and
// emits the closing event. Persistence uses a detached context so it
// completes even after the client disconnects.
func (s *Service) finishTurn(ctx context.Context, threadID, text string, events chan<- Event) {
	done := Event{Type: EventDone, ThreadID: threadID}

	if text != "" {
		msg, err := s.store.SaveMessage(context.WithoutCancel(ctx), threadID, store.RoleAssistant, text)
		if err != nil {
			s.logger.Error("persisting assistant message failed", "thread_id", threadID, "error", err)
			s.emit(ctx, events, Event{Type: EventError, Error: err.Error()})
			return
		}
		done.MessageID = msg.ID
	}

	s.emit(ctx, events, done)
}

// emit delivers an event unless the consumer is gone.
func (s *Service) emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// injectConfirmed rewrites tool-call arguments with confirmed set to true.
func injectConfirmed(argsJSON string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", err
	}
	args["confirmed"] = true
	out, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshaling tool resolution: %v", err))
	}
	return data
}
