// Package store provides persistent storage for cellchat using SQLite.
//
// # Data Models
//
//   - Thread: a conversation container with a title
//   - Message: an ordered entry within a thread (system/user/assistant/tool)
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Foreign keys are required: deleting a thread cascades to its messages.
// Timestamps are stored as fixed-width RFC3339 TEXT so lexicographic order
// matches chronological order, and message listing breaks ties on rowid so
// it always matches insertion order.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrThreadNotFound: message saved into a nonexistent thread
//
// All methods accept context.Context for cancellation support.
package store
