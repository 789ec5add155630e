// ABOUTME: Edit-and-regenerate controller
// ABOUTME: Replaces a message in place, truncates everything after it, and replays the turn

package chat

import (
	"context"
	"fmt"
	"strings"
)

// EditMessage replaces the content of an existing message (id, role, and
// timestamp are preserved), deletes every message in the thread created
// strictly after it, and regenerates from the truncated history. The
// truncation is not rolled back if regeneration fails.
func (s *Service) EditMessage(ctx context.Context, messageID, content string) (*TurnResponse, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("resolving message %s: %w", messageID, err)
	}

	if err := s.store.UpdateMessage(ctx, messageID, content); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	removed, err := s.store.DeleteMessagesAfter(ctx, msg.ThreadID, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("truncating history: %w", err)
	}

	s.logger.Info("message edited", "thread_id", msg.ThreadID,
		"message_id", messageID, "removed", removed)

	// Pending calls from discarded turns can no longer be resolved sensibly.
	s.dropPending(msg.ThreadID)

	history, err := s.buildHistory(ctx, msg.ThreadID, nil)
	if err != nil {
		return nil, err
	}

	withTools := strings.Contains(content, "@")

	events := make(chan Event, 64)
	go s.runTurn(ctx, msg.ThreadID, history, withTools, "", events)

	return &TurnResponse{ThreadID: msg.ThreadID, UserMessageID: messageID, Events: events}, nil
}

// dropPending discards all pending tool calls for a thread.
func (s *Service) dropPending(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		if p.ThreadID == threadID {
			delete(s.pending, id)
		}
	}
}
