// Package calendar is the Calendar Port: the three Google Calendar operations
// the server needs, behind a small interface.
//
// Every call takes the OAuth2 token to use, so the caller decides which
// credential is current and the client never caches one. Client is the
// production adapter over google.golang.org/api/calendar/v3.
//
// Example usage:
//
//	client := calendar.NewClient(calendar.Config{CalendarID: "primary"})
//	events, err := client.ListEvents(ctx, token, 10, time.Now())
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
