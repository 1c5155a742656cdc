package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dorisashehi/google-calendar/internal/calendar"
	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/schedule"
	"github.com/dorisashehi/google-calendar/internal/server"
	"github.com/dorisashehi/google-calendar/internal/tools/calendar_tools"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResolver() *schedule.Resolver {
	return schedule.NewResolver(schedule.TierBasic, func() time.Time { return testNow })
}

type validCredentials struct{}

func (validCredentials) Current(context.Context) (credential.Record, error) {
	return credential.Record{AccessToken: "token", Expiry: testNow.Add(time.Hour)}, nil
}

type memoryPort struct {
	created []calendar.EventInput
	deleted []string
	listed  []int
}

func (p *memoryPort) CreateEvent(_ context.Context, _ *oauth2.Token, input calendar.EventInput) (*calendar.CreatedEvent, error) {
	p.created = append(p.created, input)
	return &calendar.CreatedEvent{ID: "evt-1", HTMLLink: "https://calendar.google.com/event?eid=evt-1"}, nil
}

func (p *memoryPort) ListEvents(_ context.Context, _ *oauth2.Token, maxResults int, _ time.Time) ([]calendar.EventSummary, error) {
	p.listed = append(p.listed, maxResults)
	return []calendar.EventSummary{}, nil
}

func (p *memoryPort) DeleteEvent(_ context.Context, _ *oauth2.Token, eventID string) error {
	if eventID == "missing" {
		return errors.New("googleapi: Error 404: Not Found, notFound")
	}
	p.deleted = append(p.deleted, eventID)
	return nil
}

// newInProcessRemote wires a Remote to a real MCP server through the
// in-process transport.
func newInProcessRemote(t *testing.T) (*Remote, *memoryPort) {
	t.Helper()
	logger := discardLogger()
	port := &memoryPort{}

	d := dispatch.New(dispatch.Config{
		Credentials: validCredentials{},
		Calendar:    port,
		Resolver:    testResolver(),
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	})
	sc, err := server.NewServerContext(context.Background(), server.Options{Dispatcher: d, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("google-calendar", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, calendar_tools.RegisterCalendarTools(s, sc))

	c, err := mcpclient.NewInProcessClient(s)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	remote := NewRemote(c, testResolver(), logger)
	t.Cleanup(func() { _ = remote.Close() })
	require.NoError(t, remote.Initialize(context.Background(), "test"))
	return remote, port
}

func TestRemote_DispatchInProcess(t *testing.T) {
	remote, port := newInProcessRemote(t)
	ctx := context.Background()

	env := remote.Dispatch(ctx, command.ListIntent{MaxResults: 4})
	assert.True(t, env.Success, env.Message)
	assert.Equal(t, "Found 0 events", env.Message)
	assert.Equal(t, []int{4}, port.listed)

	env = remote.Dispatch(ctx, command.CreateIntent{
		Summary:     command.ScheduledMeetingSummary,
		Description: "team sync tomorrow at 2pm a@x.com b@y.org",
		Attendees:   []string{"a@x.com", "b@y.org"},
		RawTimeText: "team sync tomorrow at 2pm a@x.com b@y.org",
	})
	require.True(t, env.Success, env.Message)
	require.Len(t, port.created, 1)
	assert.Equal(t, time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC), port.created[0].Start.UTC())
	assert.Equal(t, time.Hour, port.created[0].End.Sub(port.created[0].Start))
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, port.created[0].Attendees)

	env = remote.Dispatch(ctx, command.AutoScheduleIntent{Summary: "review", DurationMinutes: 45})
	require.True(t, env.Success, env.Message)
	require.Len(t, port.created, 2)
	assert.Equal(t, 45*time.Minute, port.created[1].End.Sub(port.created[1].Start))

	env = remote.Dispatch(ctx, command.DeleteIntent{EventID: "evt-1"})
	assert.True(t, env.Success, env.Message)
	assert.Equal(t, []string{"evt-1"}, port.deleted)

	env = remote.Dispatch(ctx, command.DeleteIntent{EventID: "missing"})
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "404")
}

type stubCaller struct {
	calls  []mcp.CallToolRequest
	result *mcp.CallToolResult
	err    error
}

func (s *stubCaller) Initialize(context.Context, mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	return &mcp.InitializeResult{}, nil
}

func (s *stubCaller) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.calls = append(s.calls, req)
	return s.result, s.err
}

func (s *stubCaller) Close() error { return nil }

func TestRemote_RejectsLocally(t *testing.T) {
	tests := []struct {
		name        string
		intent      command.Intent
		wantMessage string
	}{
		{name: "empty delete", intent: command.DeleteIntent{}, wantMessage: "list"},
		{name: "unknown", intent: command.UnknownIntent{OriginalText: "dance"}, wantMessage: "dance"},
		{name: "zero duration", intent: command.AutoScheduleIntent{Summary: "x"}, wantMessage: "duration_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &stubCaller{}
			env := NewRemote(caller, testResolver(), discardLogger()).Dispatch(context.Background(), tt.intent)

			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.wantMessage)
			assert.Empty(t, caller.calls)
		})
	}
}

func TestRemote_TransportError(t *testing.T) {
	caller := &stubCaller{err: errors.New("broken pipe")}
	env := NewRemote(caller, testResolver(), discardLogger()).Dispatch(context.Background(), command.ListIntent{MaxResults: 10})

	assert.False(t, env.Success)
	assert.Equal(t, "broken pipe", env.Error)
	assert.Contains(t, env.Message, "list_meetings")
	require.Len(t, caller.calls, 1)
	assert.Equal(t, "list_meetings", caller.calls[0].Params.Name)
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name        string
		result      *mcp.CallToolResult
		wantSuccess bool
		wantMessage string
		wantError   string
	}{
		{
			name:        "envelope",
			result:      mcp.NewToolResultText(`{"success":true,"message":"Found 2 events"}`),
			wantSuccess: true,
			wantMessage: "Found 2 events",
		},
		{
			name:        "plain error text",
			result:      mcp.NewToolResultError("missing required argument"),
			wantMessage: "missing required argument",
			wantError:   "missing required argument",
		},
		{
			name:        "no content",
			result:      &mcp.CallToolResult{},
			wantMessage: "Failed to call list_meetings: empty tool result",
			wantError:   "empty tool result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decodeResult("list_meetings", tt.result)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Equal(t, tt.wantError, env.Error)
		})
	}
}
