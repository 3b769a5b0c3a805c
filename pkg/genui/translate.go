package genui

import (
	"fmt"
	"time"
)

// Translate converts a user action into the natural-language sentence that
// re-enters the model's context on the user's behalf. The mapping is a flat
// lookup over a closed verb vocabulary so every interaction is auditable:
// one verb, one deterministic phrase. Total: unknown verbs fall back to a
// generic sentence naming the raw verb, and the result is never empty.
func Translate(action UserAction) string {
	data := action.Data

	switch action.Action {
	case "add_to_cart":
		return fmt.Sprintf("I want to add %s to my cart", strField(data, "productName", "this product"))
	case "view_details":
		return fmt.Sprintf("Show me more details about %s", strField(data, "productName", "this product"))
	case "add_to_wishlist":
		return fmt.Sprintf("I want to add %s to my wishlist", strField(data, "productName", "this product"))
	case "share_product":
		return fmt.Sprintf("I want to share %s", strField(data, "productName", "this product"))
	case "create_event":
		return "I want to create a new event"
	case "edit_event":
		return fmt.Sprintf("I want to edit the event: %s", strField(data, "eventTitle", "this event"))
	case "delete_event":
		return fmt.Sprintf("I want to delete the event: %s", strField(data, "eventTitle", "this event"))
	case "confirm_event":
		return fmt.Sprintf("I want to confirm the event: %s", strField(data, "eventTitle", "this event"))
	case "cancel_event":
		return fmt.Sprintf("I want to cancel the event: %s", strField(data, "eventTitle", "this event"))
	case "view_event_details":
		return fmt.Sprintf("Show me details for the event: %s", strField(data, "eventTitle", "this event"))
	case "share_event":
		return fmt.Sprintf("I want to share the event: %s", strField(data, "eventTitle", "this event"))
	case "retry_load":
		return "Please retry loading the data"
	case "report_error":
		return fmt.Sprintf("I want to report an error: %s", strField(data, "error", "unknown error"))
	case "retry_load_events":
		return "Please retry loading the calendar events"
	case "refresh_calendar":
		return "Please refresh the calendar"
	case "select_calendar":
		return fmt.Sprintf("I want to work with the calendar: %s (ID: %s)",
			strField(data, "calendarName", "selected calendar"), strField(data, "calendarId", ""))
	case "view_calendar_events":
		return fmt.Sprintf("Show me events from the calendar: %s", strField(data, "calendarName", "selected calendar"))
	case "refresh_calendar_list":
		return "Please refresh the calendar list"
	case "manage_calendar":
		return fmt.Sprintf("I want to manage the calendar: %s", strField(data, "calendarName", "selected calendar"))
	case "get_events_for_view":
		viewMode := strField(data, "viewMode", "calendar")
		timeMin := dateField(data, "timeMin", "start date")
		timeMax := dateField(data, "timeMax", "end date")
		return fmt.Sprintf("Show me calendar events in %s view from %s to %s", viewMode, timeMin, timeMax)
	case "refresh_freebusy":
		return "Please refresh the free/busy availability information"
	case "create_event_from_freebusy":
		start := timeField(data, "start", "selected time")
		end := timeField(data, "end", "end time")
		return fmt.Sprintf("I want to create a new event from %s to %s using the free/busy information", start, end)
	case "retry_freebusy":
		return "Please retry loading the free/busy availability information"
	default:
		return fmt.Sprintf("I performed the action: %s", action.Action)
	}
}

func strField(data map[string]any, key, fallback string) string {
	if data == nil {
		return fallback
	}
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// dateField formats an RFC3339 field as a date, falling back when the field
// is absent or unparseable.
func dateField(data map[string]any, key, fallback string) string {
	raw := strField(data, key, "")
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return t.Format("1/2/2006")
}

// timeField formats an RFC3339 field as a clock time.
func timeField(data map[string]any, key, fallback string) string {
	raw := strField(data, key, "")
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return t.Format("15:04")
}
