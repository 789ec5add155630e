package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellchat/cellchat/internal/chat"
	"github.com/cellchat/cellchat/internal/llm"
	"github.com/cellchat/cellchat/internal/store"
	"github.com/cellchat/cellchat/internal/tools"
	"github.com/cellchat/cellchat/internal/uploads"
	"github.com/cellchat/cellchat/internal/workbook"
)

// scriptedModel replays canned responses in order.
type scriptedModel struct {
	mu    sync.Mutex
	steps []*llm.ChatResponse
}

func (m *scriptedModel) StreamChat(ctx context.Context, req llm.ChatRequest, onDelta func(string)) (*llm.ChatResponse, error) {
	m.mu.Lock()
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("scripted model: out of responses")
	}
	resp := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if resp.Content != "" && onDelta != nil {
		onDelta(resp.Content)
	}
	return resp, nil
}

type testAPI struct {
	server *httptest.Server
	store  store.Store
	engine *workbook.Engine
}

func setupTestAPI(t *testing.T, steps ...*llm.ChatResponse) *testAPI {
	t.Helper()
	dir := t.TempDir()

	st, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	wbPath := filepath.Join(dir, "workbook.json")
	require.NoError(t, workbook.Seed(wbPath))
	engine := workbook.NewEngine(wbPath, slog.Default())

	up, err := uploads.NewDirStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	service := chat.NewService(st, tools.NewRegistry(engine, slog.Default()),
		&scriptedModel{steps: steps}, up, slog.Default())

	server := httptest.NewServer(NewServer(st, service, slog.Default()).Handler())
	t.Cleanup(server.Close)

	return &testAPI{server: server, store: st, engine: engine}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, a.server.URL+path, nil)
	} else {
		req, err = http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (a *testAPI) createThread(t *testing.T, title string) string {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/threads", fmt.Sprintf(`{"title":%q}`, title))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	return created.ID
}

func TestHealth(t *testing.T) {
	api := setupTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ok"`)
}

func TestThreadCRUD(t *testing.T) {
	api := setupTestAPI(t)

	id := api.createThread(t, "Budget review")

	resp, body := api.do(t, http.MethodGet, "/api/threads", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Budget review")

	resp, _ = api.do(t, http.MethodPatch, "/api/threads/"+id, `{"title":"Renamed"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = api.do(t, http.MethodGet, "/api/threads", "")
	assert.Contains(t, string(body), "Renamed")

	resp, _ = api.do(t, http.MethodDelete, "/api/threads/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = api.do(t, http.MethodDelete, "/api/threads/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_NonStreaming(t *testing.T) {
	api := setupTestAPI(t, &llm.ChatResponse{Content: "Hello there", FinishReason: "stop"})
	id := api.createThread(t, "")

	resp, body := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"stream":false,"messages":[{"role":"user","content":"Hi"}]}`, id))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Text      string `json:"text"`
		ThreadID  string `json:"threadId"`
		MessageID string `json:"messageId"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Hello there", out.Text)
	assert.Equal(t, id, out.ThreadID)
	assert.NotEmpty(t, out.MessageID)
}

func TestChat_Validation(t *testing.T) {
	api := setupTestAPI(t)

	resp, _ := api.do(t, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"Hi"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing threadId")

	resp, _ = api.do(t, http.MethodPost, "/api/chat",
		`{"threadId":"nonexistent","stream":false,"messages":[{"role":"user","content":"Hi"}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "unknown thread")

	id := api.createThread(t, "")
	resp, _ = api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"messages":[]}`, id))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no user message")
}

func TestChat_SSEStream(t *testing.T) {
	api := setupTestAPI(t, &llm.ChatResponse{Content: "streamed reply", FinishReason: "stop"})
	id := api.createThread(t, "")

	resp, body := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"messages":[{"role":"user","content":"Hi"}]}`, id))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	text := string(body)
	assert.Contains(t, text, "event: text")
	assert.Contains(t, text, "streamed reply")
	assert.Contains(t, text, "event: done")
}

func TestChat_ConfirmationHandshake(t *testing.T) {
	api := setupTestAPI(t,
		&llm.ChatResponse{
			ToolCalls:    []llm.ToolCall{{ID: "call_1", Name: tools.NameCellUpdate, Args: `{"cell":"B2","value":999}`}},
			FinishReason: "tool_calls",
		},
		&llm.ChatResponse{Content: "Updated.", FinishReason: "stop"})
	id := api.createThread(t, "")

	_, body := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"messages":[{"role":"user","content":"set @Sales B2 to 999"}]}`, id))
	assert.Contains(t, string(body), "event: confirmation_required")

	// The write has not happened yet
	data, err := api.engine.ReadRange("B2", "")
	require.NoError(t, err)
	assert.Equal(t, 120.0, data.Rows[0][0])

	// Resolve with confirmation via a new request
	resp, body := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"stream":false,"toolResults":[{"toolCallId":"call_1","result":{"confirmed":true}}]}`, id))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Updated.")

	data, err = api.engine.ReadRange("B2", "")
	require.NoError(t, err)
	assert.Equal(t, 999.0, data.Rows[0][0])
}

func TestChat_ResolveUnknownToolCall(t *testing.T) {
	api := setupTestAPI(t)
	id := api.createThread(t, "")

	resp, _ := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"toolResults":[{"toolCallId":"ghost","result":{"confirmed":true}}]}`, id))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMessages_JSONAndHTML(t *testing.T) {
	api := setupTestAPI(t)
	id := api.createThread(t, "")
	ctx := context.Background()

	_, err := api.store.SaveMessage(ctx, id, store.RoleUser, "plain question")
	require.NoError(t, err)
	_, err = api.store.SaveMessage(ctx, id, store.RoleAssistant, "**bold** answer")
	require.NoError(t, err)

	resp, body := api.do(t, http.MethodGet, "/api/threads/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "plain question")
	assert.NotContains(t, string(body), "<strong>")

	_, body = api.do(t, http.MethodGet, "/api/threads/"+id+"/messages?format=html", "")
	assert.Contains(t, string(body), "<strong>bold</strong>")
}

func TestListMessages_ThreadNotFound(t *testing.T) {
	api := setupTestAPI(t)

	resp, _ := api.do(t, http.MethodGet, "/api/threads/nonexistent/messages", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditMessage_RegeneratesHistory(t *testing.T) {
	api := setupTestAPI(t,
		&llm.ChatResponse{Content: "first answer", FinishReason: "stop"},
		&llm.ChatResponse{Content: "regenerated answer", FinishReason: "stop"})
	id := api.createThread(t, "")

	resp, body := api.do(t, http.MethodPost, "/api/chat", fmt.Sprintf(
		`{"threadId":%q,"stream":false,"messages":[{"role":"user","content":"original"}]}`, id))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages, err := api.store.ListMessages(context.Background(), id, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	userID := messages[0].ID

	resp, body = api.do(t, http.MethodPatch, "/api/messages/"+userID, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "event: done")

	messages, err = api.store.ListMessages(context.Background(), id, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "edited", messages[0].Content)
	assert.Equal(t, "regenerated answer", messages[1].Content)
}

func TestDeleteMessage(t *testing.T) {
	api := setupTestAPI(t)
	id := api.createThread(t, "")

	msg, err := api.store.SaveMessage(context.Background(), id, store.RoleUser, "bye")
	require.NoError(t, err)

	resp, _ := api.do(t, http.MethodDelete, "/api/messages/"+msg.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = api.do(t, http.MethodDelete, "/api/messages/"+msg.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPurgeMessages(t *testing.T) {
	api := setupTestAPI(t)
	id := api.createThread(t, "")
	ctx := context.Background()

	first, err := api.store.SaveMessage(ctx, id, store.RoleUser, "keep me")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = api.store.SaveMessage(ctx, id, store.RoleAssistant, "drop me")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = api.store.SaveMessage(ctx, id, store.RoleUser, "drop me too")
	require.NoError(t, err)

	resp, body := api.do(t, http.MethodPost, "/api/threads/"+id+"/messages/purge",
		fmt.Sprintf(`{"afterId":%q}`, first.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"deleted":2`)

	messages, err := api.store.ListMessages(ctx, id, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, first.ID, messages[0].ID)
}

func TestPurgeMessages_WrongThread(t *testing.T) {
	api := setupTestAPI(t)
	idA := api.createThread(t, "a")
	idB := api.createThread(t, "b")

	msg, err := api.store.SaveMessage(context.Background(), idA, store.RoleUser, "anchor")
	require.NoError(t, err)

	resp, _ := api.do(t, http.MethodPost, "/api/threads/"+idB+"/messages/purge",
		fmt.Sprintf(`{"afterId":%q}`, msg.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
