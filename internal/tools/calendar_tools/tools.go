package calendar_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/server"
)

// Tool names.
const (
	ToolCreateMeeting       = "create_meeting"
	ToolListMeetings        = "list_meetings"
	ToolDeleteMeeting       = "delete_meeting"
	ToolAutoScheduleMeeting = "auto_schedule_meeting"
)

// RegisterCalendarTools registers the four meeting tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registerMeetingTools(s, sc)
	registerSchedulingTools(s, sc)
	return nil
}

// envelopeResult renders env as the tool result.
func envelopeResult(env dispatch.Envelope) *mcp.CallToolResult {
	if env.Success {
		return mcp.NewToolResultText(env.JSON())
	}
	return mcp.NewToolResultError(env.JSON())
}
