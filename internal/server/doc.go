// Package server provides the MCP server context and the HTTP side servers of
// the google-calendar application.
//
// # Key Components
//
// ServerContext owns the long-lived dependencies shared by every tool
// handler: the credential manager, the dispatcher, and the optional metrics
// and audit logger. It has an explicit lifecycle: it is created once at
// startup, used by all sessions, and shut down on exit.
//
// HealthChecker serves /healthz and /readyz. Readiness reflects the
// credential state, so a server whose authorization failed reports not ready
// while still answering every tool call with a failure envelope.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
