package calendar

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventsQuery carries the listing parameters passed to the events API.
type EventsQuery struct {
	TimeMin      string
	TimeMax      string
	MaxResults   int64
	SingleEvents bool
	OrderBy      string
	Query        string
}

// API is the narrow surface of the Google Calendar service this package
// uses. Tests substitute a fake.
type API interface {
	CalendarList(ctx context.Context) ([]*gcal.CalendarListEntry, error)
	Events(ctx context.Context, calendarID string, q EventsQuery) ([]*gcal.Event, error)
	InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID, sendUpdates string) error
	FreeBusy(ctx context.Context, req *gcal.FreeBusyRequest) (*gcal.FreeBusyResponse, error)
}

// googleAPI implements API over the real calendar/v3 service.
type googleAPI struct {
	svc *gcal.Service
}

var _ API = (*googleAPI)(nil)

// NewAPI builds a calendar API client authenticated with the given OAuth
// access token.
func NewAPI(ctx context.Context, accessToken string) (API, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return &googleAPI{svc: svc}, nil
}

func (g *googleAPI) CalendarList(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	resp, err := g.svc.CalendarList.List().MinAccessRole("reader").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (g *googleAPI) Events(ctx context.Context, calendarID string, q EventsQuery) ([]*gcal.Event, error) {
	call := g.svc.Events.List(calendarID).
		SingleEvents(q.SingleEvents).
		MaxResults(q.MaxResults).
		Context(ctx)
	if q.TimeMin != "" {
		call = call.TimeMin(q.TimeMin)
	}
	if q.TimeMax != "" {
		call = call.TimeMax(q.TimeMax)
	}
	if q.OrderBy != "" {
		call = call.OrderBy(q.OrderBy)
	}
	if q.Query != "" {
		call = call.Q(q.Query)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (g *googleAPI) InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
}

func (g *googleAPI) PatchEvent(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Patch(calendarID, eventID, ev).Context(ctx).Do()
}

func (g *googleAPI) DeleteEvent(ctx context.Context, calendarID, eventID, sendUpdates string) error {
	return g.svc.Events.Delete(calendarID, eventID).SendUpdates(sendUpdates).Context(ctx).Do()
}

func (g *googleAPI) FreeBusy(ctx context.Context, req *gcal.FreeBusyRequest) (*gcal.FreeBusyResponse, error) {
	return g.svc.Freebusy.Query(req).Context(ctx).Do()
}
