// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides thread/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// timeFormat is a fixed-width RFC3339 layout with nanoseconds. Timestamps are
// stored as TEXT, so the width must be constant for lexicographic comparison
// in ORDER BY and range predicates to match chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys so thread deletion cascades to messages
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_threads_created
			ON threads(created_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,

			CHECK (role IN ('system', 'user', 'assistant', 'tool'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread_created
			ON messages(thread_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isForeignKeyViolation checks if the error is a SQLite foreign key constraint violation
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// CreateThread creates a new thread with a generated ID.
func (s *SQLiteStore) CreateThread(ctx context.Context, title string) (*Thread, error) {
	thread := &Thread{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO threads (id, title, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		thread.ID,
		thread.Title,
		thread.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting thread: %w", err)
	}

	s.logger.Debug("created thread", "id", thread.ID)
	return thread, nil
}

// GetThread retrieves a thread by ID.
// Returns ErrNotFound if the thread doesn't exist.
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	query := `SELECT id, title, created_at FROM threads WHERE id = ?`

	var thread Thread
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&thread.ID,
		&thread.Title,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}

	thread.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &thread, nil
}

// ListThreads retrieves threads ordered by creation time, newest first.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) ListThreads(ctx context.Context, limit, offset int) ([]*Thread, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, title, created_at
		FROM threads
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		var thread Thread
		var createdAtStr string

		if err := rows.Scan(&thread.ID, &thread.Title, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning thread row: %w", err)
		}

		thread.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		threads = append(threads, &thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thread rows: %w", err)
	}

	return threads, nil
}

// RenameThread replaces a thread's title.
// Returns ErrNotFound if the thread doesn't exist.
func (s *SQLiteStore) RenameThread(ctx context.Context, id, title string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE threads SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("renaming thread: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("renamed thread", "id", id, "title", title)
	return nil
}

// DeleteThread removes a thread and, via the cascading foreign key, all of
// its messages. Returns ErrNotFound if the thread doesn't exist.
func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted thread", "id", id)
	return nil
}

// SaveMessage appends a message to a thread with a generated ID.
// Returns ErrThreadNotFound if the thread does not exist.
func (s *SQLiteStore) SaveMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	msg := &Message{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO messages (id, thread_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ThreadID,
		msg.Role,
		msg.Content,
		msg.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("saved message", "id", msg.ID, "thread_id", threadID, "role", role)
	return msg, nil
}

// GetMessage retrieves a message by ID.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	query := `SELECT id, thread_id, role, content, created_at FROM messages WHERE id = ?`

	var msg Message
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.Role,
		&msg.Content,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	msg.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &msg, nil
}

// ListMessages retrieves messages for a thread in chronological order
// (oldest first). rowid breaks ties for messages created in the same
// nanosecond so listing order always matches insertion order.
// If limit is 0 or negative, all messages are returned.
func (s *SQLiteStore) ListMessages(ctx context.Context, threadID string, limit, offset int) ([]*Message, error) {
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, thread_id, role, content, created_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	args := []any{threadID}

	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// UpdateMessage replaces a message's content. ID, role, and timestamp are
// preserved. Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, id, content string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated message", "id", id)
	return nil
}

// DeleteMessage removes a single message.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted message", "id", id)
	return nil
}

// DeleteMessagesAfter removes every message in a thread whose created_at is
// strictly greater than the given timestamp. Matching zero messages is not
// an error; the number of deleted rows is returned.
func (s *SQLiteStore) DeleteMessagesAfter(ctx context.Context, threadID string, after time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE thread_id = ? AND created_at > ?`,
		threadID,
		after.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting messages after: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("deleted messages after",
		"thread_id", threadID,
		"after", after.UTC().Format(timeFormat),
		"count", rowsAffected)
	return rowsAffected, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
