package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
)

var testToken = &oauth2.Token{AccessToken: "test-access-token", TokenType: "Bearer"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		Endpoint:   srv.URL + "/",
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestClient_ListEvents(t *testing.T) {
	timeMin := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "5", q.Get("maxResults"))
		assert.Equal(t, "2025-03-10T09:00:00Z", q.Get("timeMin"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[
			{"id":"e1","summary":"Standup","description":"daily","start":{"dateTime":"2025-03-10T10:00:00Z"},
			 "attendees":[{"email":"a@x.com"},{"email":"b@y.org"}]},
			{"id":"e2","start":{"date":"2025-03-11"}}
		]}`)
	})

	events, err := client.ListEvents(context.Background(), testToken, 5, timeMin)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventSummary{
		ID:          "e1",
		Summary:     "Standup",
		Start:       "2025-03-10T10:00:00Z",
		Description: "daily",
		Attendees:   []string{"a@x.com", "b@y.org"},
	}, events[0])

	assert.Equal(t, EventSummary{
		ID:          "e2",
		Summary:     "No Title",
		Start:       "2025-03-11",
		Description: "",
		Attendees:   []string{},
	}, events[1])
}

func TestClient_ListEventsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	})

	events, err := client.ListEvents(context.Background(), testToken, 10, time.Now())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_CreateEvent(t *testing.T) {
	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		attendees     []string
		wantAttendees bool
	}{
		{name: "with attendees", attendees: []string{"a@x.com", "b@y.org"}, wantAttendees: true},
		{name: "without attendees", attendees: nil, wantAttendees: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/calendars/primary/events", r.URL.Path)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"id":"evt-1","htmlLink":"https://calendar.google.com/event?eid=evt-1"}`)
			})

			created, err := client.CreateEvent(context.Background(), testToken, EventInput{
				Summary:     "Scheduled Meeting",
				Description: "team sync",
				Start:       start,
				End:         start.Add(time.Hour),
				Attendees:   tt.attendees,
			})
			require.NoError(t, err)
			assert.Equal(t, "evt-1", created.ID)
			assert.Equal(t, "https://calendar.google.com/event?eid=evt-1", created.HTMLLink)

			assert.Equal(t, "Scheduled Meeting", body["summary"])
			startBody := body["start"].(map[string]any)
			assert.Equal(t, "2025-03-11T14:00:00Z", startBody["dateTime"])
			assert.Equal(t, "UTC", startBody["timeZone"])

			_, hasAttendees := body["attendees"]
			assert.Equal(t, tt.wantAttendees, hasAttendees)
		})
	}
}

func TestClient_DeleteEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/calendars/primary/events/evt-1" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Not Found","errors":[{"domain":"global","reason":"notFound","message":"Not Found"}]}}`)
	})

	require.NoError(t, client.DeleteEvent(context.Background(), testToken, "evt-1"))

	err := client.DeleteEvent(context.Background(), testToken, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, ErrorText(err), "404")
	assert.Contains(t, ErrorText(err), "Not Found")
}

func TestClient_RequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})

	_, err := client.ListEvents(context.Background(), nil, 10, time.Now())
	assert.Error(t, err)
	err = client.DeleteEvent(context.Background(), &oauth2.Token{}, "evt-1")
	assert.Error(t, err)
}

func TestClient_CalendarID(t *testing.T) {
	assert.Equal(t, "primary", NewClient(Config{}).CalendarID())
	assert.Equal(t, "team@group.calendar.google.com", NewClient(Config{CalendarID: "team@group.calendar.google.com"}).CalendarID())
}

func TestToEventSummary_Nil(t *testing.T) {
	summary := toEventSummary(nil)
	assert.Empty(t, summary.ID)
	assert.NotNil(t, summary.Attendees)
}

func TestToEventSummary_SkipsEmptyAttendees(t *testing.T) {
	summary := toEventSummary(&calendar.Event{
		Id:        "e",
		Summary:   "s",
		Attendees: []*calendar.EventAttendee{nil, {Email: ""}, {Email: "c@z.io"}},
	})
	assert.Equal(t, []string{"c@z.io"}, summary.Attendees)
}

func TestErrorText(t *testing.T) {
	assert.Empty(t, ErrorText(nil))
	assert.Equal(t, "boom", ErrorText(errors.New("boom")))
	assert.False(t, IsNotFound(errors.New("boom")))
}
