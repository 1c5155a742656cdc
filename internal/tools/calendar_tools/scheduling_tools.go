package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/server"
	"github.com/dorisashehi/google-calendar/internal/tools/common"
)

func registerSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	autoTool := mcp.NewTool(ToolAutoScheduleMeeting,
		mcp.WithDescription("Automatically schedule a meeting for the next available time slot (one hour from now)"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Title of the meeting"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("Duration of the meeting in minutes (default: 60)"),
		),
		mcp.WithString("description",
			mcp.Description("Optional description of the meeting"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
	)
	s.AddTool(autoTool, common.InstrumentedToolHandlerWithService(ToolAutoScheduleMeeting,
		instrumentation.ServiceCalendar, instrumentation.OperationAutoSchedule, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAutoScheduleMeeting(ctx, request, sc)
		}))
}

func handleAutoScheduleMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Dispatcher().AutoSchedule(ctx, dispatch.AutoScheduleRequest{
		Summary:         request.GetString("summary", ""),
		Description:     request.GetString("description", ""),
		DurationMinutes: request.GetInt("duration_minutes", command.DefaultDurationMinutes),
		Attendees:       common.AttendeesFromArgs(request.GetArguments()),
	})
	return envelopeResult(env), nil
}
