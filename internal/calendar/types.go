package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
)

// Port is the narrow calendar backend used by the dispatcher.
type Port interface {
	CreateEvent(ctx context.Context, token *oauth2.Token, input EventInput) (*CreatedEvent, error)
	ListEvents(ctx context.Context, token *oauth2.Token, maxResults int, timeMin time.Time) ([]EventSummary, error)
	DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error
}

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
}

// CreatedEvent identifies a newly inserted event
type CreatedEvent struct {
	ID       string `json:"event_id"`
	HTMLLink string `json:"event_link"`
}

// EventSummary represents a simplified calendar event for listing.
// Start is the RFC 3339 start time of timed events or the date of all-day events.
type EventSummary struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Start       string   `json:"start"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// untitledSummary is shown for events without a title
const untitledSummary = "No Title"

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{Attendees: []string{}}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Attendees:   make([]string, 0, len(event.Attendees)),
	}
	if summary.Summary == "" {
		summary.Summary = untitledSummary
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			summary.Start = event.Start.DateTime
		} else {
			summary.Start = event.Start.Date
		}
	}

	for _, att := range event.Attendees {
		if att != nil && att.Email != "" {
			summary.Attendees = append(summary.Attendees, att.Email)
		}
	}

	return summary
}

// toEvent builds the insert request body. An empty attendee list is left out
// entirely rather than sent as an empty array.
func toEvent(input EventInput) *calendar.Event {
	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	if len(input.Attendees) > 0 {
		attendees := make([]*calendar.EventAttendee, 0, len(input.Attendees))
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		event.Attendees = attendees
	}

	return event
}
