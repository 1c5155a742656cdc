package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/logging"
)

const (
	// DefaultCalendarID selects the authenticated user's primary calendar.
	DefaultCalendarID = "primary"

	serviceName = "calendar"
)

// Config configures a Client.
type Config struct {
	// CalendarID is the calendar every operation targets. Defaults to "primary".
	CalendarID string

	// TimeZone is set on created events. Defaults to "UTC".
	TimeZone string

	// Endpoint overrides the API base URL, for tests.
	Endpoint string

	// HTTPClient is the base transport under the OAuth2 bearer transport.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Google Calendar service. A fresh service is built for every
// call from the token passed in.
type Client struct {
	calendarID string
	timeZone   string
	endpoint   string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

var _ Port = (*Client)(nil)

// NewClient creates a calendar client
func NewClient(cfg Config) *Client {
	c := &Client{
		calendarID: cfg.CalendarID,
		timeZone:   cfg.TimeZone,
		endpoint:   cfg.Endpoint,
		httpClient: cfg.HTTPClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if c.calendarID == "" {
		c.calendarID = DefaultCalendarID
	}
	if c.timeZone == "" {
		c.timeZone = "UTC"
	}
	if c.httpClient == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		c.httpClient = &http.Client{Transport: &http.Transport{ForceAttemptHTTP2: false}}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = logging.WithService(c.logger, serviceName)
	return c
}

// CalendarID returns the calendar this client operates on
func (c *Client) CalendarID() string {
	return c.calendarID
}

func (c *Client) service(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("no access token")
	}

	// oauth2.NewClient picks the base transport up from the context.
	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	httpClient := oauth2.NewClient(httpCtx, oauth2.StaticTokenSource(token))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

// ListEvents lists up to maxResults single events starting at or after
// timeMin, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, token *oauth2.Token, maxResults int, timeMin time.Time) (summaries []EventSummary, err error) {
	ctx, done := c.observe(ctx, "events.list", attribute.Int("max_results", maxResults))
	defer func() { done(err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	events, err := svc.Events.List(c.calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("events.list: %w", err)
	}

	summaries = make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// CreateEvent inserts a new event
func (c *Client) CreateEvent(ctx context.Context, token *oauth2.Token, input EventInput) (created *CreatedEvent, err error) {
	ctx, done := c.observe(ctx, "events.insert", attribute.Int("attendees", len(input.Attendees)))
	defer func() { done(err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	if input.TimeZone == "" {
		input.TimeZone = c.timeZone
	}

	event, err := svc.Events.Insert(c.calendarID, toEvent(input)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.insert: %w", err)
	}

	return &CreatedEvent{ID: event.Id, HTMLLink: event.HtmlLink}, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) (err error) {
	ctx, done := c.observe(ctx, "events.delete", attribute.String(instrumentation.SpanAttrResourceID, eventID))
	defer func() { done(err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("events.delete: %w", err)
	}
	return nil
}

// observe starts a span for operation and returns a function that ends it and
// records the outcome.
func (c *Client) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, serviceName, operation, attrs...)

	return ctx, func(err error) {
		defer span.End()

		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			c.logger.Debug("calendar request failed",
				logging.Operation(operation),
				logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		if c.metrics != nil {
			c.metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, time.Since(start))
		}
	}
}

// ErrorText returns the backend's description of err. Google API errors are
// reported with their status code and message, other errors as they are.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Error()
	}
	return err.Error()
}

// IsNotFound reports whether err is a Google API 404 or 410 response.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
