package server

import (
	"encoding/json"
	"testing"

	"github.com/front10/calendar-chat/pkg/domain"
)

func TestToolEventFromToolCall(t *testing.T) {
	tc := domain.ToolCall{
		ID:    "call-1",
		Name:  "getGoogleCalendarEvents",
		Input: map[string]any{"calendarId": "primary"},
	}
	b, _ := json.Marshal(tc)

	names := make(map[string]string)
	ev := toolEvent(domain.StreamEntry{
		ID:          "e1",
		ContentType: domain.ContentTypeToolCall,
		Content:     string(b),
	}, names)

	if ev == nil {
		t.Fatal("expected a tool event")
	}
	if ev.State != domain.ToolStateInputAvailable {
		t.Errorf("state = %q, want input-available", ev.State)
	}
	if ev.ToolID != "getGoogleCalendarEvents" {
		t.Errorf("tool ID = %q", ev.ToolID)
	}
	if ev.Input["calendarId"] != "primary" {
		t.Errorf("input = %v", ev.Input)
	}
	if names["call-1"] != "getGoogleCalendarEvents" {
		t.Errorf("tool name not recorded: %v", names)
	}
}

func TestToolEventFromToolResult(t *testing.T) {
	names := map[string]string{"call-1": "getGoogleCalendarEvents"}

	tr := domain.ToolResult{
		ToolCallID: "call-1",
		Content:    `{"events":[],"totalEvents":0,"message":"Found 0 events"}`,
	}
	b, _ := json.Marshal(tr)

	ev := toolEvent(domain.StreamEntry{
		ID:          "e2",
		ContentType: domain.ContentTypeToolResult,
		Content:     string(b),
	}, names)

	if ev == nil {
		t.Fatal("expected a tool event")
	}
	if ev.State != domain.ToolStateOutputAvailable {
		t.Errorf("state = %q, want output-available", ev.State)
	}
	if ev.ToolID != "getGoogleCalendarEvents" {
		t.Errorf("tool ID = %q, want name resolved from the call", ev.ToolID)
	}
	if ev.Output["message"] != "Found 0 events" {
		t.Errorf("output = %v", ev.Output)
	}
}

func TestToolEventFromErrorResult(t *testing.T) {
	names := map[string]string{"call-1": "deleteGoogleCalendarEvent"}

	tr := domain.ToolResult{
		ToolCallID: "call-1",
		Content:    "Error: no Google access token available, please connect your Google account first",
		IsError:    true,
	}
	b, _ := json.Marshal(tr)

	ev := toolEvent(domain.StreamEntry{
		ID:          "e3",
		ContentType: domain.ContentTypeToolResult,
		Content:     string(b),
	}, names)

	if ev == nil {
		t.Fatal("expected a tool event")
	}
	if ev.State != domain.ToolStateOutputError {
		t.Errorf("state = %q, want output-error", ev.State)
	}
	if ev.Error == "" {
		t.Error("expected error text to be set")
	}
	if ev.Output != nil {
		t.Errorf("output should be empty on error, got %v", ev.Output)
	}
}

func TestToolEventNonJSONOutput(t *testing.T) {
	names := map[string]string{"call-1": "getGoogleCalendarList"}

	tr := domain.ToolResult{ToolCallID: "call-1", Content: "plain text"}
	b, _ := json.Marshal(tr)

	ev := toolEvent(domain.StreamEntry{
		ID:          "e4",
		ContentType: domain.ContentTypeToolResult,
		Content:     string(b),
	}, names)

	if ev.Output["text"] != "plain text" {
		t.Errorf("output = %v, want text wrapper", ev.Output)
	}
}

func TestToolEventScrubsOutputStrings(t *testing.T) {
	names := map[string]string{"call-1": "getGoogleCalendarEvents"}

	tr := domain.ToolResult{
		ToolCallID: "call-1",
		Content:    `{"message":"Found 1 events","events":[{"summary":"<script>alert(1)</script>Standup"}]}`,
	}
	b, _ := json.Marshal(tr)

	ev := toolEvent(domain.StreamEntry{
		ID:          "e6",
		ContentType: domain.ContentTypeToolResult,
		Content:     string(b),
	}, names)

	if ev == nil {
		t.Fatal("expected a tool event")
	}
	events, ok := ev.Output["events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("output = %v", ev.Output)
	}
	summary := events[0].(map[string]any)["summary"]
	if summary != "Standup" {
		t.Errorf("summary = %q, want script block stripped", summary)
	}
}

func TestToolEventIgnoresTextEntries(t *testing.T) {
	ev := toolEvent(domain.StreamEntry{
		ID:          "e5",
		ContentType: domain.ContentTypeText,
		Content:     "hello",
	}, map[string]string{})

	if ev != nil {
		t.Errorf("expected nil for text entry, got %+v", ev)
	}
}
