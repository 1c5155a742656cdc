package calendar_tools

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/server"
	"github.com/dorisashehi/google-calendar/internal/tools/common"
)

// timeLayouts are the accepted start_time/end_time formats. Values without an
// offset are taken as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func registerMeetingTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createTool := mcp.NewTool(ToolCreateMeeting,
		mcp.WithDescription("Create a new meeting in Google Calendar"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Title of the meeting"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time in ISO format (e.g., '2024-01-15T10:00:00Z')"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("End time in ISO format (e.g., '2024-01-15T11:00:00Z')"),
		),
		mcp.WithString("description",
			mcp.Description("Optional description of the meeting"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
	)
	s.AddTool(createTool, common.InstrumentedToolHandlerWithService(ToolCreateMeeting,
		instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateMeeting(ctx, request, sc)
		}))

	listTool := mcp.NewTool(ToolListMeetings,
		mcp.WithDescription("List upcoming meetings from Google Calendar"),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithService(ToolListMeetings,
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMeetings(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool(ToolDeleteMeeting,
		mcp.WithDescription("Delete a meeting from Google Calendar"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to delete (see list_meetings)"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithService(ToolDeleteMeeting,
		instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteMeeting(ctx, request, sc)
		}))
}

func handleCreateMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start, err := parseTime("start_time", request.GetString("start_time", ""))
	if err != nil {
		return envelopeResult(dispatch.Reject(err)), nil
	}
	end, err := parseTime("end_time", request.GetString("end_time", ""))
	if err != nil {
		return envelopeResult(dispatch.Reject(err)), nil
	}

	env := sc.Dispatcher().CreateMeeting(ctx, dispatch.CreateMeetingRequest{
		Summary:     request.GetString("summary", ""),
		Description: request.GetString("description", ""),
		Start:       start,
		End:         end,
		Attendees:   common.AttendeesFromArgs(request.GetArguments()),
	})
	return envelopeResult(env), nil
}

func handleListMeetings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	maxResults := request.GetInt("max_results", command.DefaultMaxResults)
	return envelopeResult(sc.Dispatcher().ListMeetings(ctx, maxResults)), nil
}

func handleDeleteMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return envelopeResult(sc.Dispatcher().DeleteMeeting(ctx, common.EventIDFromArgs(request.GetArguments()))), nil
}

func parseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &dispatch.ValidationError{Field: field, Message: field + " is required"}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &dispatch.ValidationError{
		Field:   field,
		Message: field + " must be an ISO 8601 time such as 2024-01-15T10:00:00Z, got " + value,
	}
}
