// ABOUTME: Incoming message content decoding for the chat API
// ABOUTME: Content arrives either as a plain string or as a list of typed parts

package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part is one element of a multi-part message content payload.
// Only text parts contribute to the extracted display text.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Content holds a message body that arrived either as a bare JSON string
// or as an array of parts.
type Content struct {
	Text  string
	Parts []Part

	multipart bool
}

// UnmarshalJSON accepts "..." or [{"type":"text","text":"..."}].
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		c.multipart = true
		return json.Unmarshal(data, &c.Parts)
	}
	if err := json.Unmarshal(data, &c.Text); err != nil {
		return fmt.Errorf("message content must be a string or a part list: %w", err)
	}
	return nil
}

// DisplayText extracts the plain-text form: the bare string, or all text
// parts joined by newlines.
func (c Content) DisplayText() string {
	if !c.multipart {
		return c.Text
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// IncomingMessage is one client-supplied message in a chat request.
type IncomingMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}
