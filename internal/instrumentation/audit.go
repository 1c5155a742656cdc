package instrumentation

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// Attendees holds full email addresses. LogAttrs reduces them to a count and
// the set of domains; only LogAuditAttrs emits them verbatim.
type ToolInvocation struct {
	Tool      string
	Service   string
	Operation string

	EventID   string
	Attendees []string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool call.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithService sets the backing Google service and the tool operation.
func (ti *ToolInvocation) WithService(service, operation string) *ToolInvocation {
	ti.Service = service
	ti.Operation = operation
	return ti
}

// WithEvent sets the event the call targets.
func (ti *ToolInvocation) WithEvent(eventID string) *ToolInvocation {
	ti.EventID = eventID
	return ti
}

// WithAttendees sets the invited addresses.
func (ti *ToolInvocation) WithAttendees(attendees []string) *ToolInvocation {
	ti.Attendees = slices.Clone(attendees)
	return ti
}

// WithSpanContext copies the trace and span IDs of the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the timer.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// AttendeeDomains returns the sorted distinct domains of the attendees.
func (ti *ToolInvocation) AttendeeDomains() []string {
	domains := make([]string, 0, len(ti.Attendees))
	for _, a := range ti.Attendees {
		domains = append(domains, EmailDomain(a))
	}
	slices.Sort(domains)
	return slices.Compact(domains)
}

// LogAttrs returns the attributes for operational logs, without addresses.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if len(ti.Attendees) > 0 {
		attrs = append(attrs,
			slog.Int("attendee_count", len(ti.Attendees)),
			slog.Any("attendee_domains", ti.AttendeeDomains()))
	}
	return ti.appendTail(attrs)
}

// LogAuditAttrs returns the attributes for the audit stream, with full
// attendee addresses.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if len(ti.Attendees) > 0 {
		attrs = append(attrs, slog.Any("attendees", ti.Attendees))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return ti.appendTail(attrs)
}

func (ti *ToolInvocation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Service != "" {
		attrs = append(attrs, slog.String("service", ti.Service))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.EventID != "" {
		attrs = append(attrs, slog.String("event_id", ti.EventID))
	}
	return attrs
}

func (ti *ToolInvocation) appendTail(attrs []slog.Attr) []slog.Attr {
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// EmailDomain returns the part of an address after the last @, or "unknown".
func EmailDomain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 || i == len(email)-1 {
		return "unknown"
	}
	return strings.ToLower(email[i+1:])
}

// AuditLogger writes one record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that omits PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info on success and warn on failure.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs()
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	}

	level, msg := slog.LevelInfo, "tool_executed"
	if !ti.Success {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
