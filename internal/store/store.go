// ABOUTME: Store interface and data types for cellchat persistence
// ABOUTME: Defines Thread, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrThreadNotFound is returned when saving a message into a thread that does not exist
var ErrThreadNotFound = errors.New("thread not found")

// Role constants for message authorship
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Thread represents a persisted conversation container
type Thread struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Message represents a single message within a thread
type Message struct {
	ID        string
	ThreadID  string
	Role      string // "system", "user", "assistant", "tool"
	Content   string
	CreatedAt time.Time
}

// Store defines the interface for thread and message persistence
type Store interface {
	// Threads
	CreateThread(ctx context.Context, title string) (*Thread, error)
	GetThread(ctx context.Context, id string) (*Thread, error)
	ListThreads(ctx context.Context, limit, offset int) ([]*Thread, error)
	RenameThread(ctx context.Context, id, title string) error
	DeleteThread(ctx context.Context, id string) error

	// Messages
	SaveMessage(ctx context.Context, threadID, role, content string) (*Message, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListMessages(ctx context.Context, threadID string, limit, offset int) ([]*Message, error)
	UpdateMessage(ctx context.Context, id, content string) error
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesAfter(ctx context.Context, threadID string, after time.Time) (int64, error)

	// Close releases any resources held by the store
	Close() error
}
