package gemini

import "google.golang.org/genai"

// eventDateTimeSchema is shared by event start/end boundaries.
func eventDateTimeSchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: desc,
		Properties: map[string]*genai.Schema{
			"dateTime": {Type: genai.TypeString, Description: "Time in RFC3339 format, for timed events."},
			"date":     {Type: genai.TypeString, Description: "Date in YYYY-MM-DD format, for all-day events."},
			"timeZone": {Type: genai.TypeString, Description: "IANA time zone of the boundary."},
		},
	}
}

func eventDataSchema() map[string]*genai.Schema {
	return map[string]*genai.Schema{
		"summary":     {Type: genai.TypeString, Description: "Title of the event."},
		"description": {Type: genai.TypeString, Description: "Description of the event."},
		"location":    {Type: genai.TypeString, Description: "Location of the event."},
		"start":       eventDateTimeSchema("Start of the event."),
		"end":         eventDateTimeSchema("End of the event."),
		"attendees": {
			Type:        genai.TypeArray,
			Description: "Attendee email addresses.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"email":       {Type: genai.TypeString, Description: "Email address of the attendee."},
					"displayName": {Type: genai.TypeString, Description: "Display name of the attendee."},
				},
			},
		},
		"recurrence": {
			Type:        genai.TypeArray,
			Description: "RRULE recurrence rules.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	}
}

// buildToolDeclarations declares the Google Calendar tools the assistant can
// call. Names and shapes are the fixed contract the client-side component
// registry keys on.
func buildToolDeclarations() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "getGoogleCalendarList",
					Description: "Get the list of available Google Calendars for the authenticated user. Use this to let the user pick which calendar to work with.",
					Parameters: &genai.Schema{
						Type:       genai.TypeObject,
						Properties: map[string]*genai.Schema{},
					},
				},
				{
					Name:        "getGoogleCalendarEvents",
					Description: "Get events from a Google Calendar. Defaults to the current month when no date range is given. Supports date range, free-text search and calendar selection.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"calendarId": {Type: genai.TypeString, Description: "Calendar ID to fetch events from. Defaults to the primary calendar."},
							"timeMin":    {Type: genai.TypeString, Description: "Lower bound for event start times, RFC3339."},
							"timeMax":    {Type: genai.TypeString, Description: "Upper bound for event start times, RFC3339."},
							"maxResults": {Type: genai.TypeInteger, Description: "Maximum number of events to return."},
							"q":          {Type: genai.TypeString, Description: "Free-text search over event fields."},
						},
					},
				},
				{
					Name:        "createGoogleCalendarEvent",
					Description: "Create a new Google Calendar event with full details.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"calendarId": {Type: genai.TypeString, Description: "Calendar to create the event on. Defaults to primary."},
							"event":      {Type: genai.TypeObject, Description: "The event to create.", Properties: eventDataSchema(), Required: []string{"summary", "start", "end"}},
						},
						Required: []string{"event"},
					},
				},
				{
					Name:        "updateGoogleCalendarEvent",
					Description: "Update an existing Google Calendar event. Only the supplied fields change.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"calendarId": {Type: genai.TypeString, Description: "Calendar containing the event. Defaults to primary."},
							"eventId":    {Type: genai.TypeString, Description: "ID of the event to update."},
							"event":      {Type: genai.TypeObject, Description: "Fields to change.", Properties: eventDataSchema()},
						},
						Required: []string{"eventId", "event"},
					},
				},
				{
					Name:        "deleteGoogleCalendarEvent",
					Description: "Delete a Google Calendar event.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"calendarId":  {Type: genai.TypeString, Description: "Calendar containing the event. Defaults to primary."},
							"eventId":     {Type: genai.TypeString, Description: "ID of the event to delete."},
							"sendUpdates": {Type: genai.TypeString, Description: "Whether to notify attendees: all, externalOnly or none."},
						},
						Required: []string{"eventId"},
					},
				},
				{
					Name:        "getGoogleCalendarFreeBusy",
					Description: "Get free/busy information across Google Calendars to check availability and find meeting times.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"timeMin":     {Type: genai.TypeString, Description: "Start of the interval, RFC3339."},
							"timeMax":     {Type: genai.TypeString, Description: "End of the interval, RFC3339."},
							"calendarIds": {Type: genai.TypeArray, Description: "Calendars to query. Defaults to primary.", Items: &genai.Schema{Type: genai.TypeString}},
							"timeZone":    {Type: genai.TypeString, Description: "Time zone for the response."},
						},
						Required: []string{"timeMin", "timeMax"},
					},
				},
			},
		},
	}
}
