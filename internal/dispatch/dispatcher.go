package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dorisashehi/google-calendar/internal/calendar"
	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/logging"
	"github.com/dorisashehi/google-calendar/internal/schedule"
)

const (
	// MaxListResults is the largest page the Calendar API accepts.
	MaxListResults = 2500

	// MaxDurationMinutes caps meeting length at one week.
	MaxDurationMinutes = 7 * 24 * 60
)

// CredentialSource hands out the current credential. *credential.Manager
// implements it.
type CredentialSource interface {
	Current(ctx context.Context) (credential.Record, error)
}

// Config holds the Dispatcher's collaborators.
type Config struct {
	Credentials CredentialSource
	Calendar    calendar.Port
	Resolver    *schedule.Resolver
	Logger      *slog.Logger

	// Now is the clock used for list lower bounds. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher runs calendar operations and converts their outcome to envelopes.
type Dispatcher struct {
	credentials CredentialSource
	calendar    calendar.Port
	resolver    *schedule.Resolver
	logger      *slog.Logger
	now         func() time.Time
}

// CreateMeetingRequest is a create with explicit times, as sent by the
// create_meeting tool.
type CreateMeetingRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// AutoScheduleRequest asks for a meeting at the next placeholder slot.
type AutoScheduleRequest struct {
	Summary         string
	Description     string
	DurationMinutes int
	Attendees       []string
}

// New creates a Dispatcher
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		credentials: cfg.Credentials,
		calendar:    cfg.Calendar,
		resolver:    cfg.Resolver,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.resolver == nil {
		d.resolver = schedule.NewResolver(schedule.TierBasic, d.now)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = logging.WithService(d.logger, "dispatch")
	return d
}

// Resolver returns the resolver used for free-text times.
func (d *Dispatcher) Resolver() *schedule.Resolver {
	return d.resolver
}

// Validate checks an intent without touching the credential or the backend.
// It is the precheck Dispatch runs first, exported for clients that forward
// intents elsewhere.
func Validate(intent command.Intent) error {
	switch in := intent.(type) {
	case command.ListIntent:
		return validateMaxResults(in.MaxResults)
	case command.CreateIntent:
		return nil
	case command.AutoScheduleIntent:
		if strings.TrimSpace(in.Summary) == "" {
			return invalid("summary", "A meeting title is required, e.g. 'auto design review for 30'.")
		}
		return validateDuration(in.DurationMinutes)
	case command.DeleteIntent:
		return validateEventID(in.EventID)
	case command.UnknownIntent:
		return invalid("command", "Unrecognized command %q.", strings.TrimSpace(in.OriginalText))
	case nil:
		return invalid("command", "Empty command.")
	default:
		return invalid("command", "Unsupported command %T.", intent)
	}
}

// Dispatch executes intent and never returns an error: every outcome is an
// envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, intent command.Intent) Envelope {
	if err := Validate(intent); err != nil {
		return d.rejected(intentName(intent), err)
	}

	switch in := intent.(type) {
	case command.ListIntent:
		return d.ListMeetings(ctx, in.MaxResults)

	case command.CreateIntent:
		window := d.resolver.Resolve(in.RawTimeText, command.DefaultDurationMinutes)
		return d.create(ctx, "create", in.Summary, in.Description, in.Attendees, window)

	case command.AutoScheduleIntent:
		return d.AutoSchedule(ctx, AutoScheduleRequest{
			Summary:         in.Summary,
			Description:     in.Description,
			DurationMinutes: in.DurationMinutes,
		})

	case command.DeleteIntent:
		return d.DeleteMeeting(ctx, in.EventID)
	}

	// Validate rejects everything else.
	return d.rejected(intentName(intent), invalid("command", "Unsupported command."))
}

// ListMeetings lists upcoming events starting now.
func (d *Dispatcher) ListMeetings(ctx context.Context, maxResults int) Envelope {
	if err := validateMaxResults(maxResults); err != nil {
		return d.rejected("list", err)
	}

	tok, env, ok := d.token(ctx, "list")
	if !ok {
		return env
	}

	events, err := d.calendar.ListEvents(ctx, tok, maxResults, d.now().UTC())
	if err != nil {
		return d.backendFailure("list", &BackendError{Action: "list events", Err: err})
	}

	d.logger.Info("listed events", logging.Operation("list"), slog.Int("count", len(events)))
	return success(ListPayload{Events: events, Count: len(events)}, fmt.Sprintf("Found %d events", len(events)))
}

// CreateMeeting creates an event with explicit start and end times.
func (d *Dispatcher) CreateMeeting(ctx context.Context, req CreateMeetingRequest) Envelope {
	if strings.TrimSpace(req.Summary) == "" {
		return d.rejected("create", invalid("summary", "summary is required"))
	}
	window, err := d.resolver.Explicit(req.Start, req.End)
	if err != nil {
		return d.rejected("create", invalid("end_time", "%s", err.Error()))
	}
	return d.create(ctx, "create", req.Summary, req.Description, req.Attendees, window)
}

// AutoSchedule creates an event at the placeholder slot one hour from now.
func (d *Dispatcher) AutoSchedule(ctx context.Context, req AutoScheduleRequest) Envelope {
	if strings.TrimSpace(req.Summary) == "" {
		return d.rejected("auto_schedule", invalid("summary", "summary is required"))
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return d.rejected("auto_schedule", err)
	}
	window := d.resolver.Next(req.DurationMinutes)
	return d.create(ctx, "auto_schedule", req.Summary, req.Description, req.Attendees, window)
}

// DeleteMeeting removes an event by id.
func (d *Dispatcher) DeleteMeeting(ctx context.Context, eventID string) Envelope {
	eventID = strings.TrimSpace(eventID)
	if err := validateEventID(eventID); err != nil {
		return d.rejected("delete", err)
	}

	tok, env, ok := d.token(ctx, "delete")
	if !ok {
		return env
	}

	if err := d.calendar.DeleteEvent(ctx, tok, eventID); err != nil {
		return d.backendFailure("delete", &BackendError{Action: "delete event", Err: err})
	}

	d.logger.Info("deleted event", logging.Operation("delete"), logging.EventID(eventID))
	return success(DeletePayload{EventID: eventID}, fmt.Sprintf("Event %s deleted successfully", eventID))
}

func (d *Dispatcher) create(ctx context.Context, op, summary, description string, attendees []string, window schedule.TimeWindow) Envelope {
	tok, env, ok := d.token(ctx, op)
	if !ok {
		return env
	}

	created, err := d.calendar.CreateEvent(ctx, tok, calendar.EventInput{
		Summary:     summary,
		Description: description,
		Start:       window.Start,
		End:         window.End,
		Attendees:   attendees,
	})
	if err != nil {
		return d.backendFailure(op, &BackendError{Action: "create event", Err: err})
	}

	d.logger.Info("created event",
		logging.Operation(op),
		logging.EventID(created.ID),
		slog.Time("start", window.Start),
		logging.Attendees(attendees))

	return success(CreatePayload{
		EventID:   created.ID,
		EventLink: created.HTMLLink,
		Start:     window.Start,
		End:       window.End,
	}, fmt.Sprintf("Event '%s' created successfully", summary))
}

func (d *Dispatcher) token(ctx context.Context, op string) (tok *oauth2.Token, env Envelope, ok bool) {
	rec, err := d.credentials.Current(ctx)
	if err != nil {
		d.logger.Warn("credential unavailable", logging.Operation(op), logging.Err(err))
		return nil, failure(err.Error(), NotInitializedMessage), false
	}
	return rec.Token(), Envelope{}, true
}

func (d *Dispatcher) rejected(op string, err error) Envelope {
	d.logger.Debug("request rejected", logging.Operation(op), logging.Err(err))
	return Reject(err)
}

func (d *Dispatcher) backendFailure(op string, err *BackendError) Envelope {
	d.logger.Warn("calendar operation failed", logging.Operation(op), logging.Err(err))

	text := calendar.ErrorText(err.Err)
	return failure(text, fmt.Sprintf("Failed to %s: %s", err.Action, text))
}

func validateMaxResults(n int) error {
	if n < 1 || n > MaxListResults {
		return invalid("max_results", "max_results must be between 1 and %d", MaxListResults)
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < 1 || minutes > MaxDurationMinutes {
		return invalid("duration_minutes", "duration_minutes must be between 1 and %d", MaxDurationMinutes)
	}
	return nil
}

func validateEventID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("event_id", "You must provide an event_id (get it from the 'list' command).")
	}
	return nil
}

func intentName(intent command.Intent) string {
	if intent == nil {
		return "unknown"
	}
	return intent.Name()
}
