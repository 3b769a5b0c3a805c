package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/store"
)

// Store implements SessionStore and StreamStore using SQLite.
type Store struct {
	db          *sql.DB
	subscribers []chan string
	mu          sync.RWMutex
}

// Verify interface compliance at compile time.
var _ store.SessionStore = (*Store)(nil)
var _ store.StreamStore = (*Store)(nil)

// New opens (or creates) a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		compaction_model TEXT NOT NULL DEFAULT '',
		compaction_threshold REAL NOT NULL DEFAULT 0.6,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stream_entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'text',
		content TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		seq INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_stream_session_seq ON stream_entries(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- SessionStore ---

func (s *Store) Create(ctx context.Context, sess *domain.Session) error {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, model, compaction_model, compaction_threshold, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Title, sess.Model, sess.CompactionModel, sess.CompactionThreshold,
		sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, model, compaction_model, compaction_threshold, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Title, &sess.Model, &sess.CompactionModel,
		&sess.CompactionThreshold, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, err
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, model, compaction_model, compaction_threshold, created_at, updated_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.Model, &sess.CompactionModel,
			&sess.CompactionThreshold, &sess.CreatedAt, &sess.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) Update(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title=?, model=?, compaction_model=?, compaction_threshold=?, updated_at=?
		 WHERE id=?`,
		sess.Title, sess.Model, sess.CompactionModel, sess.CompactionThreshold,
		sess.UpdatedAt, sess.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// --- StreamStore ---

func (s *Store) Append(ctx context.Context, entry *domain.StreamEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	// Get next sequence number.
	var maxSeq int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM stream_entries WHERE session_id=?`,
		entry.SessionID,
	).Scan(&maxSeq)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stream_entries (id, session_id, role, content_type, content, model, timestamp, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.Role, entry.ContentType,
		entry.Content, entry.Model, entry.Timestamp, maxSeq+1,
	)
	if err != nil {
		return err
	}

	// Notify subscribers.
	s.notifySubscribers(entry.SessionID)
	return nil
}

func (s *Store) GetEntries(ctx context.Context, sessionID string, limit int) ([]domain.StreamEntry, error) {
	// Find the seq of the last compaction_summary entry (if any).
	var compactionSeq int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM stream_entries WHERE session_id=? AND role=?`,
		sessionID, domain.RoleCompactionSummary,
	).Scan(&compactionSeq)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, session_id, role, content_type, content, model, timestamp
		FROM stream_entries WHERE session_id=? AND seq >= ? ORDER BY seq ASC`
	var args []any
	args = append(args, sessionID, compactionSeq)

	if limit > 0 {
		// Subquery to get only the last N entries (from the compacted view) in ASC order.
		query = `SELECT id, session_id, role, content_type, content, model, timestamp FROM (
			SELECT id, session_id, role, content_type, content, model, timestamp, seq
			FROM stream_entries WHERE session_id=? AND seq >= ? ORDER BY seq DESC LIMIT ?
		) sub ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.StreamEntry
	for rows.Next() {
		var e domain.StreamEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.ContentType, &e.Content, &e.Model, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetEntriesAfter(ctx context.Context, sessionID string, afterID string) ([]domain.StreamEntry, error) {
	// Find the seq of the afterID entry.
	var afterSeq int
	err := s.db.QueryRowContext(ctx,
		`SELECT seq FROM stream_entries WHERE id=? AND session_id=?`, afterID, sessionID,
	).Scan(&afterSeq)
	if err == sql.ErrNoRows {
		// If the afterID doesn't exist, return all entries.
		return s.GetEntries(ctx, sessionID, 0)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content_type, content, model, timestamp
		 FROM stream_entries WHERE session_id=? AND seq > ? ORDER BY seq ASC`,
		sessionID, afterSeq,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.StreamEntry
	for rows.Next() {
		var e domain.StreamEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.ContentType, &e.Content, &e.Model, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Compact(ctx context.Context, sessionID string, summary string) error {
	// Append a compaction summary entry. GetEntries will use this as the new
	// starting point, effectively hiding all older entries from the view.
	return s.Append(ctx, &domain.StreamEntry{
		ID:          fmt.Sprintf("compaction-%d", time.Now().UnixNano()),
		SessionID:   sessionID,
		Role:        domain.RoleCompactionSummary,
		ContentType: domain.ContentTypeText,
		Content:     summary,
	})
}

func (s *Store) Subscribe() <-chan string {
	ch := make(chan string, 64)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notifySubscribers(sessionID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- sessionID:
		default:
			// Drop if subscriber is not consuming fast enough.
		}
	}
}
