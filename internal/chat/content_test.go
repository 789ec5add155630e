package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_BareString(t *testing.T) {
	var msg IncomingMessage
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hello"}`), &msg))
	assert.Equal(t, "hello", msg.Content.DisplayText())
}

func TestContent_Parts(t *testing.T) {
	var msg IncomingMessage
	payload := `{"role":"user","content":[
		{"type":"text","text":"first"},
		{"type":"image","text":""},
		{"type":"text","text":"second"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	assert.Equal(t, "first\nsecond", msg.Content.DisplayText())
}

func TestContent_InvalidShape(t *testing.T) {
	var msg IncomingMessage
	err := json.Unmarshal([]byte(`{"role":"user","content":42}`), &msg)
	assert.Error(t, err)
}
