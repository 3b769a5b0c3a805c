// Package calendar wraps the Google Calendar REST API as a set of tools the
// model can call. Each wrapper validates the access token, calls the
// underlying API, and reshapes the response into a fixed schema the renderer
// and translator consume as-is. Output text fields are sanitized before they
// enter the conversation stream.
package calendar

// EventDateTime is either a timed (DateTime) or all-day (Date) boundary.
type EventDateTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

// Attendee is one event participant.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	ResponseStatus string `json:"responseStatus"`
}

// Event is the fixed event schema exposed to the model and the UI.
type Event struct {
	ID          string        `json:"id"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	Location    string        `json:"location"`
	Attendees   []Attendee    `json:"attendees"`
	Recurrence  []string      `json:"recurrence"`
	Status      string        `json:"status"`
	Created     string        `json:"created"`
	Updated     string        `json:"updated"`
}

// ListEntry describes one calendar in the user's calendar list.
type ListEntry struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description"`
	TimeZone        string `json:"timeZone"`
	AccessRole      string `json:"accessRole"`
	Primary         bool   `json:"primary"`
	BackgroundColor string `json:"backgroundColor"`
	ForegroundColor string `json:"foregroundColor"`
}

// TimePeriod is one busy interval in a free/busy response.
type TimePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeBusyCalendar is the busy intervals of one calendar.
type FreeBusyCalendar struct {
	ID   string       `json:"id"`
	Busy []TimePeriod `json:"busy"`
}

// GetEventsInput selects which events to list. An empty time window defaults
// to the current month.
type GetEventsInput struct {
	CalendarID   string `json:"calendarId,omitempty"`
	TimeMin      string `json:"timeMin,omitempty"`
	TimeMax      string `json:"timeMax,omitempty"`
	MaxResults   int64  `json:"maxResults,omitempty"`
	SingleEvents *bool  `json:"singleEvents,omitempty"`
	OrderBy      string `json:"orderBy,omitempty"`
	Query        string `json:"q,omitempty"`
}

// GetEventsOutput is the reshaped event listing.
type GetEventsOutput struct {
	Summary string  `json:"summary"`
	Events  []Event `json:"events"`
}

// GetCalendarListOutput is the reshaped calendar list.
type GetCalendarListOutput struct {
	Message   string      `json:"message"`
	Calendars []ListEntry `json:"calendars"`
}

// EventData carries the writable fields of an event for create/update.
type EventData struct {
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Start       EventDateTime `json:"start,omitempty"`
	End         EventDateTime `json:"end,omitempty"`
	Location    string        `json:"location,omitempty"`
	Attendees   []Attendee    `json:"attendees,omitempty"`
	Recurrence  []string      `json:"recurrence,omitempty"`
}

// CreateEventInput creates an event on the given calendar.
type CreateEventInput struct {
	CalendarID string    `json:"calendarId,omitempty"`
	Event      EventData `json:"event"`
}

// UpdateEventInput patches an existing event.
type UpdateEventInput struct {
	CalendarID string    `json:"calendarId,omitempty"`
	EventID    string    `json:"eventId"`
	Event      EventData `json:"event"`
}

// MutateEventOutput is the response to a create or update.
type MutateEventOutput struct {
	Message string `json:"message"`
	Event   Event  `json:"event"`
}

// DeleteEventInput removes an event.
type DeleteEventInput struct {
	CalendarID  string `json:"calendarId,omitempty"`
	EventID     string `json:"eventId"`
	SendUpdates string `json:"sendUpdates,omitempty"`
}

// DeleteEventOutput confirms a deletion.
type DeleteEventOutput struct {
	Message        string `json:"message"`
	DeletedEventID string `json:"deletedEventId"`
}

// FreeBusyInput queries availability across calendars.
type FreeBusyInput struct {
	TimeMin           string   `json:"timeMin"`
	TimeMax           string   `json:"timeMax"`
	CalendarIDs       []string `json:"calendarIds"`
	TimeZone          string   `json:"timeZone,omitempty"`
	GroupExpansionMax int64    `json:"groupExpansionMax,omitempty"`
}

// FreeBusyOutput is the reshaped free/busy response.
type FreeBusyOutput struct {
	Calendars []FreeBusyCalendar `json:"calendars"`
	TimeMin   string             `json:"timeMin"`
	TimeMax   string             `json:"timeMax"`
	Summary   string             `json:"summary"`
}
