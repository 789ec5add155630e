// ABOUTME: OpenAI-compatible streaming chat client
// ABOUTME: Speaks /v1/chat/completions with SSE decoding and tool-call delta accumulation

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when no API credential is configured
var ErrMissingAPIKey = errors.New("model API key not configured (set model.api_key or OPENAI_API_KEY)")

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIClient creates a streaming chat client.
// Fails fast when the API key is empty so a misconfigured server is caught
// at startup rather than on the first turn.
func NewOpenAIClient(baseURL, apiKey, model string, logger *slog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger.With("component", "llm"),
	}, nil
}

var _ Client = (*OpenAIClient)(nil)

// Wire structures for the chat completions protocol.

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireCallFunction `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

type deltaToolCall struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string          `json:"content"`
			ToolCalls []deltaToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamChat sends one chat completion request with stream=true, forwarding
// text deltas to onDelta and accumulating tool-call fragments by index.
func (c *OpenAIClient) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) (*ChatResponse, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("chat request", "model", c.model,
		"messages", len(req.Messages), "tools", len(req.Tools))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("chat API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return c.readStream(resp.Body, onDelta)
}

func (c *OpenAIClient) buildRequest(req ChatRequest) wireRequest {
	wr := wireRequest{Model: c.model, Stream: true}

	for _, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireCallFunction{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			})
		}
		wr.Messages = append(wr.Messages, wm)
	}

	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return wr
}

// readStream decodes SSE lines until [DONE] or EOF. Tool-call fragments are
// merged by choice index: the first fragment carries id and name, later
// fragments append argument text.
func (c *OpenAIClient) readStream(body io.Reader, onDelta func(string)) (*ChatResponse, error) {
	var content strings.Builder
	calls := make(map[int]*ToolCall)
	finishReason := ""

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Warn("skipping malformed stream chunk", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if onDelta != nil {
				onDelta(choice.Delta.Content)
			}
		}

		for _, frag := range choice.Delta.ToolCalls {
			call, ok := calls[frag.Index]
			if !ok {
				call = &ToolCall{}
				calls[frag.Index] = call
			}
			if frag.ID != "" {
				call.ID = frag.ID
			}
			if frag.Function.Name != "" {
				call.Name = frag.Function.Name
			}
			call.Args += frag.Function.Arguments
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finishReason = *choice.FinishReason
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat stream: %w", err)
	}

	resp := &ChatResponse{Content: content.String(), FinishReason: finishReason}

	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		resp.ToolCalls = append(resp.ToolCalls, *calls[i])
	}

	c.logger.Debug("chat response", "content_len", len(resp.Content),
		"tool_calls", len(resp.ToolCalls), "finish_reason", finishReason)

	return resp, nil
}
