package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

// ErrNoAccessToken is returned when calendar tools run without a connected
// Google account. Surfaced verbatim to the model and the user.
var ErrNoAccessToken = errors.New("no Google access token available, please connect your Google account first")

// Service exposes the calendar tool operations over an API client.
type Service struct {
	api API

	// now is swappable for tests of the default time window.
	now func() time.Time
}

// NewService wraps an API client. A nil api means no token was available;
// every operation then fails with ErrNoAccessToken.
func NewService(api API) *Service {
	return &Service{api: api, now: time.Now}
}

func (s *Service) ready() error {
	if s.api == nil {
		return ErrNoAccessToken
	}
	return nil
}

// GetCalendarList lists the user's calendars.
func (s *Service) GetCalendarList(ctx context.Context) (*GetCalendarListOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	items, err := s.api.CalendarList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar list: %w", err)
	}

	out := &GetCalendarListOutput{
		Message:   fmt.Sprintf("Found %d calendars", len(items)),
		Calendars: make([]ListEntry, 0, len(items)),
	}
	for _, c := range items {
		out.Calendars = append(out.Calendars, ListEntry{
			ID:              c.Id,
			Summary:         orDefault(SanitizeString(c.Summary), "Untitled Calendar"),
			Description:     SanitizeString(c.Description),
			TimeZone:        orDefault(c.TimeZone, "UTC"),
			AccessRole:      orDefault(c.AccessRole, "reader"),
			Primary:         c.Primary,
			BackgroundColor: orDefault(c.BackgroundColor, "#ffffff"),
			ForegroundColor: orDefault(c.ForegroundColor, "#000000"),
		})
	}
	return out, nil
}

// GetEvents lists events from a calendar. When no time window is given the
// current month is used, so "show my events" works without any arguments.
func (s *Service) GetEvents(ctx context.Context, input GetEventsInput) (*GetEventsOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	timeMin, timeMax := input.TimeMin, input.TimeMax
	if timeMin == "" || timeMax == "" {
		first, last := s.currentMonth()
		if timeMin == "" {
			timeMin = first
		}
		if timeMax == "" {
			timeMax = last
		}
	}

	q := EventsQuery{
		TimeMin:      timeMin,
		TimeMax:      timeMax,
		MaxResults:   input.MaxResults,
		SingleEvents: input.SingleEvents == nil || *input.SingleEvents,
		OrderBy:      orDefault(input.OrderBy, "startTime"),
		Query:        input.Query,
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 100
	}

	items, err := s.api.Events(ctx, orDefault(input.CalendarID, "primary"), q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	out := &GetEventsOutput{
		Summary: fmt.Sprintf("Found %d events", len(items)),
		Events:  make([]Event, 0, len(items)),
	}
	for _, ev := range items {
		out.Events = append(out.Events, reshapeEvent(ev))
	}
	return out, nil
}

// CreateEvent inserts a new event.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*MutateEventOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	created, err := s.api.InsertEvent(ctx, orDefault(input.CalendarID, "primary"), toGoogleEvent(input.Event))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &MutateEventOutput{
		Message: "Event created successfully",
		Event:   reshapeEvent(created),
	}, nil
}

// UpdateEvent patches an existing event; only the supplied fields change.
func (s *Service) UpdateEvent(ctx context.Context, input UpdateEventInput) (*MutateEventOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if input.EventID == "" {
		return nil, errors.New("eventId is required")
	}

	updated, err := s.api.PatchEvent(ctx, orDefault(input.CalendarID, "primary"), input.EventID, toGoogleEvent(input.Event))
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &MutateEventOutput{
		Message: "Event updated successfully",
		Event:   reshapeEvent(updated),
	}, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, input DeleteEventInput) (*DeleteEventOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if input.EventID == "" {
		return nil, errors.New("eventId is required")
	}

	err := s.api.DeleteEvent(ctx, orDefault(input.CalendarID, "primary"), input.EventID, orDefault(input.SendUpdates, "none"))
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	return &DeleteEventOutput{
		Message:        "Event deleted successfully",
		DeletedEventID: input.EventID,
	}, nil
}

// GetFreeBusy queries busy intervals across the given calendars.
func (s *Service) GetFreeBusy(ctx context.Context, input FreeBusyInput) (*FreeBusyOutput, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if input.TimeMin == "" || input.TimeMax == "" {
		return nil, errors.New("timeMin and timeMax are required")
	}

	req := &gcal.FreeBusyRequest{
		TimeMin:  input.TimeMin,
		TimeMax:  input.TimeMax,
		TimeZone: input.TimeZone,
	}
	if input.GroupExpansionMax > 0 {
		req.GroupExpansionMax = input.GroupExpansionMax
	}
	ids := input.CalendarIDs
	if len(ids) == 0 {
		ids = []string{"primary"}
	}
	for _, id := range ids {
		req.Items = append(req.Items, &gcal.FreeBusyRequestItem{Id: id})
	}

	resp, err := s.api.FreeBusy(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch free/busy information: %w", err)
	}

	out := &FreeBusyOutput{
		TimeMin: input.TimeMin,
		TimeMax: input.TimeMax,
	}
	totalBusy := 0
	for id, cal := range resp.Calendars {
		fc := FreeBusyCalendar{ID: id, Busy: []TimePeriod{}}
		for _, p := range cal.Busy {
			fc.Busy = append(fc.Busy, TimePeriod{Start: p.Start, End: p.End})
		}
		totalBusy += len(fc.Busy)
		out.Calendars = append(out.Calendars, fc)
	}
	out.Summary = fmt.Sprintf("Free/busy information for %d %s from %s to %s. Found %d busy %s.",
		len(out.Calendars), plural(len(out.Calendars), "calendar"),
		formatDate(input.TimeMin), formatDate(input.TimeMax),
		totalBusy, plural(totalBusy, "period"))
	return out, nil
}

// currentMonth returns the RFC3339 bounds of the current month.
func (s *Service) currentMonth() (string, string) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, 0).Add(-time.Second)
	return first.Format(time.RFC3339), last.Format(time.RFC3339)
}

// reshapeEvent converts an API event into the fixed output schema, filling
// the same defaults the UI expects.
func reshapeEvent(ev *gcal.Event) Event {
	out := Event{
		ID:          ev.Id,
		Summary:     orDefault(SanitizeString(ev.Summary), "No Title"),
		Description: SanitizeString(ev.Description),
		Location:    SanitizeString(ev.Location),
		Attendees:   []Attendee{},
		Recurrence:  ev.Recurrence,
		Status:      orDefault(ev.Status, "confirmed"),
		Created:     ev.Created,
		Updated:     ev.Updated,
	}
	if out.Recurrence == nil {
		out.Recurrence = []string{}
	}
	if ev.Start != nil {
		out.Start = EventDateTime{DateTime: ev.Start.DateTime, Date: ev.Start.Date, TimeZone: orDefault(ev.Start.TimeZone, "UTC")}
	} else {
		out.Start = EventDateTime{TimeZone: "UTC"}
	}
	if ev.End != nil {
		out.End = EventDateTime{DateTime: ev.End.DateTime, Date: ev.End.Date, TimeZone: orDefault(ev.End.TimeZone, "UTC")}
	} else {
		out.End = EventDateTime{TimeZone: "UTC"}
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, Attendee{
			Email:          a.Email,
			DisplayName:    SanitizeString(a.DisplayName),
			ResponseStatus: orDefault(a.ResponseStatus, "needsAction"),
		})
	}
	return out
}

// toGoogleEvent converts writable event data into the API representation.
func toGoogleEvent(data EventData) *gcal.Event {
	ev := &gcal.Event{
		Summary:     data.Summary,
		Description: data.Description,
		Location:    data.Location,
		Recurrence:  data.Recurrence,
	}
	if data.Start != (EventDateTime{}) {
		ev.Start = &gcal.EventDateTime{DateTime: data.Start.DateTime, Date: data.Start.Date, TimeZone: data.Start.TimeZone}
	}
	if data.End != (EventDateTime{}) {
		ev.End = &gcal.EventDateTime{DateTime: data.End.DateTime, Date: data.End.Date, TimeZone: data.End.TimeZone}
	}
	for _, a := range data.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}
	return ev
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func formatDate(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return t.Format("1/2/2006")
}
