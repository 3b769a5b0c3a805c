package store

import (
	"context"

	"github.com/front10/calendar-chat/pkg/domain"
)

// SessionStore manages the persistence of chat sessions.
type SessionStore interface {
	// Create persists a new session. The ID field must be set by the caller.
	Create(ctx context.Context, sess *domain.Session) error

	// Get retrieves a session by its unique ID.
	// Returns an error if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns all sessions, ordered by creation time descending.
	List(ctx context.Context) ([]domain.Session, error)

	// Update persists changes to an existing session.
	Update(ctx context.Context, sess *domain.Session) error

	// Delete removes a session by ID. Associated stream entries are removed
	// via cascade.
	Delete(ctx context.Context, id string) error
}

// StreamStore manages the append-only message stream for sessions.
// Stream entries are immutable — compaction works by appending a summary
// entry rather than deleting old entries. Query methods return the
// "compacted view" (entries from the most recent compaction entry onward).
type StreamStore interface {
	// Append adds a new entry to the end of the session's stream.
	// The entry's ID should be set by the caller.
	Append(ctx context.Context, entry *domain.StreamEntry) error

	// GetEntries returns the compacted view of entries for a session in
	// chronological order. If limit > 0, returns at most that many.
	GetEntries(ctx context.Context, sessionID string, limit int) ([]domain.StreamEntry, error)

	// GetEntriesAfter returns entries appended after the given entry ID,
	// respecting the compacted view.
	GetEntriesAfter(ctx context.Context, sessionID string, afterID string) ([]domain.StreamEntry, error)

	// Compact appends a compaction_summary entry to the stream. Older
	// entries remain in the database but are excluded from GetEntries.
	Compact(ctx context.Context, sessionID string, summary string) error

	// Subscribe returns a channel that emits session IDs whenever new
	// entries are appended to any session's stream. Used by the controller
	// to trigger the next step of the agent loop and by the websocket
	// handler to push updates.
	Subscribe() <-chan string
}
