// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the google-calendar MCP server.
//
// # Metrics
//
// MCP tools:
//   - mcp_tool_invocations_total: tool calls by tool and status
//   - mcp_tool_duration_seconds: tool call latency
//
// Google Calendar API:
//   - google_api_operations_total: API calls by service, operation and status
//   - google_api_operation_duration_seconds: API call latency
//
// Credentials:
//   - oauth_auth_total: interactive authorizations by result
//   - oauth_token_refresh_total: refresh grants by result
//
// Streamable HTTP transport:
//   - http_requests_total and http_request_duration_seconds
//
// # Tracing
//
// Spans are created for tool calls (tool.<name>) and Calendar API requests
// (google.calendar.<operation>).
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG and OTEL_SERVICE_NAME, plus AUDIT_LOGGING_ENABLED
// and AUDIT_LOGGING_INCLUDE_PII for the audit log.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "list_meetings", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
