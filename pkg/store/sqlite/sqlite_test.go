package sqlite

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/front10/calendar-chat/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpFile := t.TempDir() + "/test.db"
	s, err := New(tmpFile)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
		os.Remove(tmpFile)
	})
	return s
}

func TestSessionCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{
		ID:    "sess-1",
		Title: "Calendar planning",
		Model: "gemini-2.0-flash",
	}

	// Create
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Get
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Calendar planning" {
		t.Errorf("Title = %q, want %q", got.Title, "Calendar planning")
	}

	// Update
	got.Title = "Updated Title"
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got2, _ := s.Get(ctx, "sess-1")
	if got2.Title != "Updated Title" {
		t.Errorf("after update: Title = %q, want %q", got2.Title, "Updated Title")
	}

	// List
	sessions, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("List len = %d, want 1", len(sessions))
	}

	// Delete
	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = s.Get(ctx, "sess-1")
	if err == nil {
		t.Error("expected error after delete, got nil")
	}
}

func TestStreamAppendAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test"})

	// Append several entries
	for i := 0; i < 5; i++ {
		entry := &domain.StreamEntry{
			ID:          uuid.New().String(),
			SessionID:   "sess-1",
			Role:        domain.RoleUser,
			ContentType: domain.ContentTypeText,
			Content:     "message " + string(rune('A'+i)),
		}
		if err := s.Append(ctx, entry); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	// Get all
	entries, err := s.GetEntries(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("GetEntries: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("GetEntries len = %d, want 5", len(entries))
	}

	// Get with limit
	limited, err := s.GetEntries(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("GetEntries limit: %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("GetEntries limited len = %d, want 3", len(limited))
	}
	// Should be the last 3
	if limited[0].Content != entries[2].Content {
		t.Errorf("first limited entry = %q, want %q", limited[0].Content, entries[2].Content)
	}
}

func TestStreamGetEntriesAfter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test"})

	var ids []string
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		ids = append(ids, id)
		s.Append(ctx, &domain.StreamEntry{
			ID:          id,
			SessionID:   "sess-1",
			Role:        domain.RoleUser,
			ContentType: domain.ContentTypeText,
			Content:     "msg",
		})
	}

	// Get entries after the 3rd one
	after, err := s.GetEntriesAfter(ctx, "sess-1", ids[2])
	if err != nil {
		t.Fatalf("GetEntriesAfter: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("GetEntriesAfter len = %d, want 2", len(after))
	}
}

func TestStreamCompaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test"})

	for i := 0; i < 5; i++ {
		s.Append(ctx, &domain.StreamEntry{
			ID:          uuid.New().String(),
			SessionID:   "sess-1",
			Role:        domain.RoleUser,
			ContentType: domain.ContentTypeText,
			Content:     fmt.Sprintf("msg-%d", i),
		})
	}

	if err := s.Compact(ctx, "sess-1", "summary of first messages"); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	// Append 2 more entries after compaction.
	for i := 5; i < 7; i++ {
		s.Append(ctx, &domain.StreamEntry{
			ID:          uuid.New().String(),
			SessionID:   "sess-1",
			Role:        domain.RoleUser,
			ContentType: domain.ContentTypeText,
			Content:     fmt.Sprintf("msg-%d", i),
		})
	}

	// GetEntries should return: compaction_summary + msg-5 + msg-6 = 3.
	entries, err := s.GetEntries(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("GetEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("after compaction GetEntries len = %d, want 3", len(entries))
	}
	if entries[0].Role != domain.RoleCompactionSummary {
		t.Errorf("first entry role = %q, want %q", entries[0].Role, domain.RoleCompactionSummary)
	}
	if entries[0].Content != "summary of first messages" {
		t.Errorf("compaction content = %q, want %q", entries[0].Content, "summary of first messages")
	}

	// Original entries are never deleted, only hidden from the view.
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM stream_entries WHERE session_id='sess-1'`).Scan(&total); err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 8 {
		t.Errorf("total entries in db = %d, want 8", total)
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test"})

	ch := s.Subscribe()

	s.Append(ctx, &domain.StreamEntry{
		ID:          uuid.New().String(),
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "hello",
	})

	select {
	case id := <-ch:
		if id != "sess-1" {
			t.Errorf("notified session = %q, want %q", id, "sess-1")
		}
	default:
		t.Error("expected a subscription notification, got none")
	}
}
