package common

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/logging"
	"github.com/dorisashehi/google-calendar/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandlerWithService wraps handler with a tool span, the
// mcp_tool_invocations_total and mcp_tool_duration_seconds metrics and an
// audit record tagged with serviceName and operation.
//
// A result flagged IsError counts as a failed invocation even though the
// handler returned no error.
//
//	s.AddTool(tool, common.InstrumentedToolHandlerWithService("list_meetings", "calendar", "list", sc, handler))
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		args := request.GetArguments()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(serviceName, operation).
			WithEvent(EventIDFromArgs(args)).
			WithAttendees(AttendeesFromArgs(args))

		result, err := handler(ctx, request)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.Complete(false, err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			failure := errors.New(resultText(result))
			invocation.Complete(false, failure)
			instrumentation.SetSpanError(span, failure)
		default:
			invocation.Complete(true, nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, operation, status, invocation.Duration)
		sc.AuditLogger().LogToolInvocation(invocation)
		sc.Logger().Debug("tool call finished",
			logging.Tool(toolName),
			logging.Status(status),
			slog.Duration("duration", invocation.Duration.Round(time.Millisecond)))

		return result, err
	}
}

// resultText returns the error field of the envelope carried by result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		text, ok := c.(mcp.TextContent)
		if !ok {
			continue
		}
		var env struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(text.Text), &env) == nil && env.Error != "" {
			return env.Error
		}
		return text.Text
	}
	return "tool returned an error result"
}
