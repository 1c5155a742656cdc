package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/logging"
	"github.com/dorisashehi/google-calendar/internal/schedule"
)

// Executor runs one intent and reports the outcome as an envelope.
// *dispatch.Dispatcher and *Remote implement it.
type Executor interface {
	Dispatch(ctx context.Context, intent command.Intent) dispatch.Envelope
}

// ToolCaller is the part of the mcp-go client Remote needs.
type ToolCaller interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// SpawnConfig describes the server process Spawn starts.
type SpawnConfig struct {
	// Command is the server binary, usually os.Executable().
	Command string
	// Args are passed to Command, e.g. ["serve", "--token-file", "token.json"].
	Args []string
	Env  []string

	// Stderr receives the server's log output. Defaults to io.Discard.
	Stderr io.Writer

	Version string
}

// Remote forwards intents to an MCP server as tool calls.
type Remote struct {
	caller   ToolCaller
	resolver *schedule.Resolver
	logger   *slog.Logger
}

// Spawn starts the server as a subprocess over stdio, performs the MCP
// handshake and returns a Remote bound to it.
func Spawn(ctx context.Context, cfg SpawnConfig, resolver *schedule.Resolver, logger *slog.Logger) (*Remote, error) {
	c, err := mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Command, err)
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	if r, ok := mcpclient.GetStderr(c); ok {
		go func() { _, _ = io.Copy(stderr, r) }()
	}

	remote := NewRemote(c, resolver, logger)
	if err := remote.Initialize(ctx, cfg.Version); err != nil {
		_ = c.Close()
		return nil, err
	}
	return remote, nil
}

// NewRemote wraps an already started client. Call Initialize before Dispatch.
func NewRemote(caller ToolCaller, resolver *schedule.Resolver, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = schedule.NewResolver(schedule.TierNatural, time.Now)
	}
	return &Remote{
		caller:   caller,
		resolver: resolver,
		logger:   logging.WithService(logger, "remote"),
	}
}

// Initialize performs the MCP handshake.
func (r *Remote) Initialize(ctx context.Context, version string) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "google-calendar-chat",
		Version: version,
	}

	result, err := r.caller.Initialize(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}
	r.logger.Debug("connected",
		slog.String("server", result.ServerInfo.Name),
		slog.String("server_version", result.ServerInfo.Version))
	return nil
}

// Dispatch validates intent locally, resolves free-text times with the local
// resolver and calls the matching tool.
func (r *Remote) Dispatch(ctx context.Context, intent command.Intent) dispatch.Envelope {
	if err := dispatch.Validate(intent); err != nil {
		return dispatch.Reject(err)
	}

	name, args := r.toolCall(intent)
	if name == "" {
		return dispatch.Reject(fmt.Errorf("unsupported command %T", intent))
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := r.caller.CallTool(ctx, req)
	if err != nil {
		r.logger.Warn("tool call failed", logging.Tool(name), logging.Err(err))
		return dispatch.Envelope{
			Error:   err.Error(),
			Message: fmt.Sprintf("Failed to call %s: %s", name, err.Error()),
		}
	}
	return decodeResult(name, result)
}

// Close stops the session and, for a spawned server, the subprocess.
func (r *Remote) Close() error {
	return r.caller.Close()
}

func (r *Remote) toolCall(intent command.Intent) (string, map[string]any) {
	switch in := intent.(type) {
	case command.ListIntent:
		return "list_meetings", map[string]any{"max_results": in.MaxResults}

	case command.CreateIntent:
		window := r.resolver.Resolve(in.RawTimeText, command.DefaultDurationMinutes)
		return "create_meeting", map[string]any{
			"summary":     in.Summary,
			"start_time":  window.Start.Format(time.RFC3339),
			"end_time":    window.End.Format(time.RFC3339),
			"description": in.Description,
			"attendees":   strings.Join(in.Attendees, ","),
		}

	case command.AutoScheduleIntent:
		return "auto_schedule_meeting", map[string]any{
			"summary":          in.Summary,
			"duration_minutes": in.DurationMinutes,
			"description":      in.Description,
		}

	case command.DeleteIntent:
		return "delete_meeting", map[string]any{"event_id": in.EventID}
	}
	return "", nil
}

// decodeResult reads the envelope from the first text content of result.
func decodeResult(tool string, result *mcp.CallToolResult) dispatch.Envelope {
	for _, c := range result.Content {
		text, ok := c.(mcp.TextContent)
		if !ok {
			continue
		}
		var env dispatch.Envelope
		if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
			env = dispatch.Envelope{Success: !result.IsError, Message: text.Text}
			if result.IsError {
				env.Error = text.Text
			}
		}
		return env
	}
	err := errors.New("empty tool result")
	return dispatch.Envelope{Error: err.Error(), Message: fmt.Sprintf("Failed to call %s: %s", tool, err)}
}
