package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/front10/calendar-chat/pkg/genui"
)

var (
	componentTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("#25A065")).
				Padding(0, 1)

	componentBodyStyle = lipgloss.NewStyle().PaddingLeft(2)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	componentErrStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				Bold(true)

	primaryBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")).
				Bold(true)
)

// registerCalendarComponents installs the component bundles for the calendar
// tools. Every bundle routes user actions through the same handler.
func registerCalendarComponents(reg *genui.Registry, onAction func(genui.UserAction)) {
	reg.Register(genui.ComponentBundle{
		ToolID:       "getGoogleCalendarList",
		Loading:      loadingComponent("Loading your calendars..."),
		Success:      calendarListView,
		Error:        errorComponent("calendars", "retry_load"),
		OnUserAction: onAction,
	})
	reg.Register(genui.ComponentBundle{
		ToolID:       "getGoogleCalendarEvents",
		Loading:      loadingComponent("Loading calendar events..."),
		Success:      eventsView,
		Error:        errorComponent("calendar events", "retry_load_events"),
		OnUserAction: onAction,
	})
	reg.Register(genui.ComponentBundle{
		ToolID:       "getGoogleCalendarFreeBusy",
		Loading:      loadingComponent("Checking availability..."),
		Success:      freeBusyView,
		Error:        errorComponent("availability", "retry_freebusy"),
		OnUserAction: onAction,
	})
}

func loadingComponent(text string) genui.Component {
	return func(genui.Props) genui.Rendered {
		return genui.Rendered{View: loadingStyle.Render(text)}
	}
}

// errorComponent builds the shared failure view: the error text plus a retry
// affordance using the given action verb.
func errorComponent(what, retryAction string) genui.Component {
	return func(p genui.Props) genui.Rendered {
		view := componentErrStyle.Render(fmt.Sprintf("Failed to load %s: %s", what, p.Error))
		return genui.Rendered{
			View: view,
			Actions: []genui.BoundAction{{
				Label: "Retry",
				Invoke: func() {
					p.OnAction(genui.PartialAction{Action: retryAction})
				},
			}},
		}
	}
}

// calendarListView renders the calendar picker. Each calendar gets a select
// action so the user can choose which one the conversation works with.
func calendarListView(p genui.Props) genui.Rendered {
	calendars := asMaps(p.Output["calendars"])

	var sb strings.Builder
	sb.WriteString(componentTitleStyle.Render("Your Calendars"))
	sb.WriteString("\n")

	var actions []genui.BoundAction
	for _, cal := range calendars {
		name := str(cal, "summary")
		id := str(cal, "id")
		line := "• " + name
		if b, _ := cal["primary"].(bool); b {
			line += " " + primaryBadgeStyle.Render("(primary)")
		}
		sb.WriteString(componentBodyStyle.Render(line))
		sb.WriteString("\n")

		actions = append(actions, genui.BoundAction{
			Label: "Use " + name,
			Invoke: func() {
				p.OnAction(genui.PartialAction{
					Action: "select_calendar",
					Data:   map[string]any{"calendarName": name, "calendarId": id},
				})
			},
		})
	}

	if len(calendars) == 0 {
		sb.WriteString(componentBodyStyle.Render("No calendars found."))
		sb.WriteString("\n")
	}

	actions = append(actions, genui.BoundAction{
		Label: "Refresh list",
		Invoke: func() {
			p.OnAction(genui.PartialAction{Action: "refresh_calendar_list"})
		},
	})

	return genui.Rendered{View: sb.String(), Actions: actions}
}

// eventsView renders an event listing with per-event affordances.
func eventsView(p genui.Props) genui.Rendered {
	events := asMaps(p.Output["events"])

	var sb strings.Builder
	title := str(p.Output, "summary")
	if title == "" {
		title = "Calendar Events"
	}
	sb.WriteString(componentTitleStyle.Render(title))
	sb.WriteString("\n")

	var actions []genui.BoundAction
	for _, ev := range events {
		evTitle := str(ev, "summary")
		line := fmt.Sprintf("• %s  %s", eventTimeRange(ev), evTitle)
		if loc := str(ev, "location"); loc != "" {
			line += "  @ " + loc
		}
		sb.WriteString(componentBodyStyle.Render(line))
		sb.WriteString("\n")

		// Keep the action list manageable for keyboard dispatch.
		if len(actions) < 6 {
			actions = append(actions,
				genui.BoundAction{
					Label: "Edit " + evTitle,
					Invoke: func() {
						p.OnAction(genui.PartialAction{
							Action: "edit_event",
							Data:   map[string]any{"eventTitle": evTitle, "eventId": str(ev, "id")},
						})
					},
				},
				genui.BoundAction{
					Label: "Delete " + evTitle,
					Invoke: func() {
						p.OnAction(genui.PartialAction{
							Action: "delete_event",
							Data:   map[string]any{"eventTitle": evTitle, "eventId": str(ev, "id")},
						})
					},
				},
			)
		}
	}

	if len(events) == 0 {
		sb.WriteString(componentBodyStyle.Render("No events in this window."))
		sb.WriteString("\n")
	}

	actions = append(actions, genui.BoundAction{
		Label: "Create event",
		Invoke: func() {
			p.OnAction(genui.PartialAction{Action: "create_event"})
		},
	})

	return genui.Rendered{View: sb.String(), Actions: actions}
}

// freeBusyView renders the availability summary.
func freeBusyView(p genui.Props) genui.Rendered {
	var sb strings.Builder
	sb.WriteString(componentTitleStyle.Render("Availability"))
	sb.WriteString("\n")

	if summary := str(p.Output, "summary"); summary != "" {
		sb.WriteString(componentBodyStyle.Render(summary))
		sb.WriteString("\n")
	}

	for _, cal := range asMaps(p.Output["calendars"]) {
		busy := asMaps(cal["busy"])
		sb.WriteString(componentBodyStyle.Render(fmt.Sprintf("%s: %d busy period(s)", str(cal, "id"), len(busy))))
		sb.WriteString("\n")
		for _, period := range busy {
			sb.WriteString(componentBodyStyle.Render(
				fmt.Sprintf("  %s – %s", formatClock(str(period, "start")), formatClock(str(period, "end")))))
			sb.WriteString("\n")
		}
	}

	actions := []genui.BoundAction{{
		Label: "Refresh availability",
		Invoke: func() {
			p.OnAction(genui.PartialAction{Action: "refresh_freebusy"})
		},
	}}

	return genui.Rendered{View: sb.String(), Actions: actions}
}

// --- helpers ---

// asMaps coerces a decoded JSON array into a slice of objects, skipping
// anything that isn't one.
func asMaps(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// eventTimeRange renders an event's start/end as a compact range. All-day
// events show their date instead.
func eventTimeRange(ev map[string]any) string {
	start, _ := ev["start"].(map[string]any)
	end, _ := ev["end"].(map[string]any)

	if d := str(start, "date"); d != "" {
		return d + " (all day)"
	}
	return fmt.Sprintf("%s–%s", formatClock(str(start, "dateTime")), formatClock(str(end, "dateTime")))
}

func formatClock(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format("15:04")
}
