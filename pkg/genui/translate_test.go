package genui

import "testing"

func TestTranslateVocabulary(t *testing.T) {
	cases := []struct {
		name   string
		action UserAction
		want   string
	}{
		{
			name: "add_to_cart",
			action: UserAction{Action: "add_to_cart", Data: map[string]any{"productName": "Widget"}},
			want: "I want to add Widget to my cart",
		},
		{
			name:   "add_to_cart fallback",
			action: UserAction{Action: "add_to_cart"},
			want:   "I want to add this product to my cart",
		},
		{
			name: "view_details",
			action: UserAction{Action: "view_details", Data: map[string]any{"productName": "Widget"}},
			want: "Show me more details about Widget",
		},
		{
			name:   "create_event",
			action: UserAction{Action: "create_event"},
			want:   "I want to create a new event",
		},
		{
			name: "edit_event",
			action: UserAction{Action: "edit_event", Data: map[string]any{"eventTitle": "Team Meeting"}},
			want: "I want to edit the event: Team Meeting",
		},
		{
			name: "delete_event",
			action: UserAction{Action: "delete_event", Data: map[string]any{"eventTitle": "Team Meeting"}},
			want: "I want to delete the event: Team Meeting",
		},
		{
			name:   "delete_event fallback",
			action: UserAction{Action: "delete_event"},
			want:   "I want to delete the event: this event",
		},
		{
			name: "select_calendar",
			action: UserAction{Action: "select_calendar", Data: map[string]any{
				"calendarName": "Work", "calendarId": "work@example.com",
			}},
			want: "I want to work with the calendar: Work (ID: work@example.com)",
		},
		{
			name:   "refresh_calendar_list",
			action: UserAction{Action: "refresh_calendar_list"},
			want:   "Please refresh the calendar list",
		},
		{
			name: "get_events_for_view",
			action: UserAction{Action: "get_events_for_view", Data: map[string]any{
				"viewMode": "week",
				"timeMin":  "2025-06-01T00:00:00Z",
				"timeMax":  "2025-06-07T23:59:59Z",
			}},
			want: "Show me calendar events in week view from 6/1/2025 to 6/7/2025",
		},
		{
			name:   "get_events_for_view fallbacks",
			action: UserAction{Action: "get_events_for_view"},
			want:   "Show me calendar events in calendar view from start date to end date",
		},
		{
			name: "create_event_from_freebusy",
			action: UserAction{Action: "create_event_from_freebusy", Data: map[string]any{
				"start": "2025-06-02T14:00:00Z",
				"end":   "2025-06-02T15:00:00Z",
			}},
			want: "I want to create a new event from 14:00 to 15:00 using the free/busy information",
		},
		{
			name:   "retry_freebusy",
			action: UserAction{Action: "retry_freebusy"},
			want:   "Please retry loading the free/busy availability information",
		},
		{
			name: "report_error",
			action: UserAction{Action: "report_error", Data: map[string]any{"error": "token expired"}},
			want: "I want to report an error: token expired",
		},
		{
			name:   "unknown verb falls back",
			action: UserAction{Action: "launch_rocket"},
			want:   "I performed the action: launch_rocket",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(tc.action)
			if got != tc.want {
				t.Errorf("Translate(%s) = %q, want %q", tc.action.Action, got, tc.want)
			}
		})
	}
}

func TestTranslateNeverEmpty(t *testing.T) {
	if got := Translate(UserAction{}); got == "" {
		t.Error("Translate of a zero action must not be empty")
	}
}

func TestDateFieldUnparseable(t *testing.T) {
	got := Translate(UserAction{Action: "get_events_for_view", Data: map[string]any{
		"timeMin": "not-a-date",
	}})
	want := "Show me calendar events in calendar view from start date to end date"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
