package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_CreateThread(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "Quarterly numbers")
	require.NoError(t, err)
	require.NotEmpty(t, thread.ID)

	retrieved, err := store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, thread.ID, retrieved.ID)
	assert.Equal(t, "Quarterly numbers", retrieved.Title)
}

func TestStore_GetThread_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetThread(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListThreads_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		thread, err := store.CreateThread(ctx, fmt.Sprintf("thread %d", i))
		require.NoError(t, err)
		ids = append(ids, thread.ID)
		time.Sleep(2 * time.Millisecond)
	}

	threads, err := store.ListThreads(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, threads, 3)

	// Newest first
	assert.Equal(t, ids[2], threads[0].ID)
	assert.Equal(t, ids[1], threads[1].ID)
	assert.Equal(t, ids[0], threads[2].ID)
}

func TestStore_ListThreads_LimitOffset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.CreateThread(ctx, fmt.Sprintf("thread %d", i))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := store.ListThreads(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.ListThreads(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestStore_RenameThread(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "old title")
	require.NoError(t, err)

	require.NoError(t, store.RenameThread(ctx, thread.ID, "new title"))

	retrieved, err := store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", retrieved.Title)
}

func TestStore_RenameThread_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.RenameThread(ctx, "nonexistent", "title")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveMessage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	msg, err := store.SaveMessage(ctx, thread.ID, RoleUser, "Hello")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	messages, err := store.ListMessages(ctx, thread.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hello", messages[0].Content)
	assert.Equal(t, RoleUser, messages[0].Role)
}

func TestStore_SaveMessage_ThreadNotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.SaveMessage(ctx, "nonexistent", RoleUser, "Hello")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestStore_ListMessages_InsertionOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 10; i++ {
		msg, err := store.SaveMessage(ctx, thread.ID, RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	messages, err := store.ListMessages(ctx, thread.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 10)

	for i, msg := range messages {
		assert.Equal(t, ids[i], msg.ID, "message %d out of order", i)
		if i > 0 {
			assert.False(t, msg.CreatedAt.Before(messages[i-1].CreatedAt),
				"created_at must be non-decreasing")
		}
	}
}

func TestStore_ListMessages_LimitOffset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.SaveMessage(ctx, thread.ID, RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	page, err := store.ListMessages(ctx, thread.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "message 1", page[0].Content)
	assert.Equal(t, "message 2", page[1].Content)
}

func TestStore_UpdateMessage_PreservesMetadata(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	msg, err := store.SaveMessage(ctx, thread.ID, RoleUser, "original")
	require.NoError(t, err)

	require.NoError(t, store.UpdateMessage(ctx, msg.ID, "edited"))

	retrieved, err := store.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", retrieved.Content)
	assert.Equal(t, msg.Role, retrieved.Role)
	assert.True(t, retrieved.CreatedAt.Equal(msg.CreatedAt), "timestamp must be preserved")
}

func TestStore_UpdateMessage_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpdateMessage(ctx, "nonexistent", "content")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteMessage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	msg, err := store.SaveMessage(ctx, thread.ID, RoleUser, "Hello")
	require.NoError(t, err)

	require.NoError(t, store.DeleteMessage(ctx, msg.ID))

	_, err = store.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteMessagesAfter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "x")
	require.NoError(t, err)

	m1, err := store.SaveMessage(ctx, thread.ID, RoleUser, "Hi")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = store.SaveMessage(ctx, thread.ID, RoleAssistant, "Hello")
	require.NoError(t, err)

	count, err := store.DeleteMessagesAfter(ctx, thread.ID, m1.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	messages, err := store.ListMessages(ctx, thread.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, m1.ID, messages[0].ID)
}

func TestStore_DeleteMessagesAfter_ZeroMatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	count, err := store.DeleteMessagesAfter(ctx, thread.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStore_DeleteThread_Cascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.SaveMessage(ctx, thread.ID, RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteThread(ctx, thread.ID))

	_, err = store.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	messages, err := store.ListMessages(ctx, thread.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_DeleteThread_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.DeleteThread(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}
