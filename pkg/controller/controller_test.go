package controller

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/model"
	"github.com/front10/calendar-chat/pkg/store/sqlite"
	"github.com/front10/calendar-chat/pkg/tools/calendar"
)

// scriptedProvider returns a fixed sequence of responses, one per Stream call.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []model.Message
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) List(ctx context.Context) ([]domain.Model, error) {
	return []domain.Model{{ID: "test-model", Name: "Test Model", MaxTokens: 100000}}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, modelName, instructions string, messages []model.Message) (model.ModelStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls >= len(p.responses) {
		return &scriptedStream{msg: model.Message{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeText, Text: "done"}},
		}}, nil
	}
	msg := p.responses[p.calls]
	p.calls++
	return &scriptedStream{msg: msg}, nil
}

type scriptedStream struct {
	msg model.Message
}

func (s *scriptedStream) FullMessage() (model.Message, error) { return s.msg, nil }
func (s *scriptedStream) Close() error                        { return nil }

// fakeCalendarAPI serves a single canned event list.
type fakeCalendarAPI struct{}

func (f *fakeCalendarAPI) CalendarList(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	return []*gcal.CalendarListEntry{{Id: "primary", Summary: "Primary", Primary: true}}, nil
}

func (f *fakeCalendarAPI) Events(ctx context.Context, calendarID string, q calendar.EventsQuery) ([]*gcal.Event, error) {
	return []*gcal.Event{{
		Id:      "ev-1",
		Summary: "Team Meeting",
		Start:   &gcal.EventDateTime{DateTime: "2025-06-10T10:00:00Z"},
		End:     &gcal.EventDateTime{DateTime: "2025-06-10T11:00:00Z"},
	}}, nil
}

func (f *fakeCalendarAPI) InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	ev.Id = "new-ev"
	return ev, nil
}

func (f *fakeCalendarAPI) PatchEvent(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	ev.Id = eventID
	return ev, nil
}

func (f *fakeCalendarAPI) DeleteEvent(ctx context.Context, calendarID, eventID, sendUpdates string) error {
	return nil
}

func (f *fakeCalendarAPI) FreeBusy(ctx context.Context, req *gcal.FreeBusyRequest) (*gcal.FreeBusyResponse, error) {
	return &gcal.FreeBusyResponse{Calendars: map[string]gcal.FreeBusyCalendar{}}, nil
}

func newTestController(t *testing.T, provider model.Provider) (*Controller, *sqlite.Store) {
	t.Helper()
	s, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cal := calendar.NewService(&fakeCalendarAPI{})
	return New(s, s, provider, cal), s
}

// waitForEntries polls until the session's stream has at least n entries.
func waitForEntries(t *testing.T, s *sqlite.Store, sessionID string, n int) []domain.StreamEntry {
	t.Helper()
	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			entries, _ := s.GetEntries(context.Background(), sessionID, 0)
			t.Fatalf("timeout waiting for %d entries, have %d", n, len(entries))
			return nil
		case <-ticker.C:
			entries, err := s.GetEntries(context.Background(), sessionID, 0)
			if err != nil {
				t.Fatalf("GetEntries: %v", err)
			}
			if len(entries) >= n {
				return entries
			}
		}
	}
}

func TestAgentLoopTextResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []model.Message{
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeText, Text: "Hello! Which calendar would you like to use?"}},
		},
	}}

	c, s := newTestController(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	if err := s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test", Model: "test-model"}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Append(ctx, &domain.StreamEntry{
		ID:          "msg-1",
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "Hi",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := waitForEntries(t, s, "sess-1", 2)
	last := entries[len(entries)-1]
	if last.Role != domain.RoleAssistant {
		t.Errorf("last role = %q, want assistant", last.Role)
	}
	if !strings.Contains(last.Content, "Which calendar") {
		t.Errorf("unexpected assistant content: %q", last.Content)
	}
}

func TestAgentLoopToolCall(t *testing.T) {
	tc := &domain.ToolCall{
		ID:    "call-1",
		Name:  "getGoogleCalendarEvents",
		Input: map[string]any{"calendarId": "primary"},
	}
	provider := &scriptedProvider{responses: []model.Message{
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeToolCall, ToolCall: tc}},
		},
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeText, Text: "You have one event: Team Meeting."}},
		},
	}}

	c, s := newTestController(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test", Model: "test-model"})
	s.Append(ctx, &domain.StreamEntry{
		ID:          "msg-1",
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "What's on my calendar?",
	})

	// Expect: user msg, tool call, tool result, final text = 4 entries.
	entries := waitForEntries(t, s, "sess-1", 4)

	if entries[1].ContentType != domain.ContentTypeToolCall {
		t.Errorf("entry 1 content type = %q, want tool_call", entries[1].ContentType)
	}
	if entries[2].Role != domain.RoleTool {
		t.Errorf("entry 2 role = %q, want tool", entries[2].Role)
	}

	var result domain.ToolResult
	if err := json.Unmarshal([]byte(entries[2].Content), &result); err != nil {
		t.Fatalf("parsing tool result: %v", err)
	}
	if result.ToolCallID != "call-1" {
		t.Errorf("tool result call ID = %q, want call-1", result.ToolCallID)
	}
	if result.IsError {
		t.Errorf("tool result is an error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Team Meeting") {
		t.Errorf("tool result missing event: %s", result.Content)
	}

	last := entries[len(entries)-1]
	if !strings.Contains(last.Content, "Team Meeting") {
		t.Errorf("final response = %q", last.Content)
	}
}

func TestAgentLoopUnknownTool(t *testing.T) {
	tc := &domain.ToolCall{ID: "call-1", Name: "nonexistentTool", Input: map[string]any{}}
	provider := &scriptedProvider{responses: []model.Message{
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeToolCall, ToolCall: tc}},
		},
	}}

	c, s := newTestController(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test", Model: "test-model"})
	s.Append(ctx, &domain.StreamEntry{
		ID:          "msg-1",
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "Hi",
	})

	entries := waitForEntries(t, s, "sess-1", 3)

	var result domain.ToolResult
	if err := json.Unmarshal([]byte(entries[2].Content), &result); err != nil {
		t.Fatalf("parsing tool result: %v", err)
	}
	if !result.IsError {
		t.Error("expected error tool result for unknown tool")
	}
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("result content = %q", result.Content)
	}
}

// blockingCalendarAPI signals when Events starts, then blocks until the
// context is cancelled.
type blockingCalendarAPI struct {
	fakeCalendarAPI
	started chan struct{}
}

func (b *blockingCalendarAPI) Events(ctx context.Context, calendarID string, q calendar.EventsQuery) ([]*gcal.Event, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStopDuringToolExecution(t *testing.T) {
	tc := &domain.ToolCall{
		ID:    "call-1",
		Name:  "getGoogleCalendarEvents",
		Input: map[string]any{"calendarId": "primary"},
	}
	provider := &scriptedProvider{responses: []model.Message{
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeToolCall, ToolCall: tc}},
		},
	}}

	s, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	api := &blockingCalendarAPI{started: make(chan struct{})}
	c := New(s, s, provider, calendar.NewService(api))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test", Model: "test-model"})
	s.Append(ctx, &domain.StreamEntry{
		ID:          "msg-1",
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "What's on my calendar?",
	})

	select {
	case <-api.started:
	case <-time.After(2 * time.Second):
		t.Fatal("tool execution never started")
	}
	c.Stop("sess-1")

	// The cancelled call must resolve as an error tool result.
	entries := waitForEntries(t, s, "sess-1", 3)
	var result domain.ToolResult
	if err := json.Unmarshal([]byte(entries[2].Content), &result); err != nil {
		t.Fatalf("parsing tool result: %v", err)
	}
	if !result.IsError {
		t.Error("expected error tool result after stop")
	}
	if result.ToolCallID != "call-1" {
		t.Errorf("tool result call ID = %q, want call-1", result.ToolCallID)
	}
	if !strings.Contains(result.Content, "canceled") {
		t.Errorf("result content = %q", result.Content)
	}

	deadline := time.After(2 * time.Second)
	for c.Status("sess-1") != domain.StatusReady {
		select {
		case <-deadline:
			t.Fatalf("status = %q, want ready", c.Status("sess-1"))
		case <-time.After(20 * time.Millisecond):
		}
	}

	// The stopped turn must not re-invoke the model.
	time.Sleep(100 * time.Millisecond)
	if got, _ := s.GetEntries(context.Background(), "sess-1", 0); len(got) != 3 {
		t.Fatalf("entries after stop = %d, want 3", len(got))
	}
	provider.mu.Lock()
	calls := provider.calls
	provider.mu.Unlock()
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestStatusTransitions(t *testing.T) {
	provider := &scriptedProvider{responses: []model.Message{
		{
			Role:    domain.RoleAssistant,
			Content: []model.Content{{Type: domain.ContentTypeText, Text: "hi"}},
		},
	}}

	c, s := newTestController(t, provider)
	statusCh := c.SubscribeStatus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	if got := c.Status("sess-1"); got != domain.StatusReady {
		t.Errorf("initial status = %q, want ready", got)
	}

	s.Create(ctx, &domain.Session{ID: "sess-1", Title: "test", Model: "test-model"})
	s.Append(ctx, &domain.StreamEntry{
		ID:          "msg-1",
		SessionID:   "sess-1",
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     "Hi",
	})

	var seen []domain.ChatStatus
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timeout, statuses seen: %v", seen)
		case sc := <-statusCh:
			seen = append(seen, sc.Status)
			if sc.Status == domain.StatusReady {
				// Must have passed through submitted and streaming first.
				want := []domain.ChatStatus{domain.StatusSubmitted, domain.StatusStreaming, domain.StatusReady}
				if len(seen) != len(want) {
					t.Fatalf("statuses = %v, want %v", seen, want)
				}
				for i := range want {
					if seen[i] != want[i] {
						t.Fatalf("statuses = %v, want %v", seen, want)
					}
				}
				return
			}
		}
	}
}
