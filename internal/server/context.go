package server

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/instrumentation"
)

// Options configures a ServerContext. Dispatcher is required.
type Options struct {
	// Credentials is the credential manager. It may be nil in tests, in which
	// case readiness does not consider credentials.
	Credentials *credential.Manager

	Dispatcher *dispatch.Dispatcher

	// CalendarID and Scopes are reported by the config://calendar resource.
	CalendarID string
	Scopes     []string

	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
	Logger      *slog.Logger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	credentials *credential.Manager
	dispatcher  *dispatch.Dispatcher
	calendarID  string
	scopes      []string
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		credentials: opts.Credentials,
		dispatcher:  opts.Dispatcher,
		calendarID:  opts.CalendarID,
		scopes:      slices.Clone(opts.Scopes),
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		logger:      logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Credentials returns the credential manager, which may be nil
func (sc *ServerContext) Credentials() *credential.Manager {
	return sc.credentials
}

// Dispatcher returns the calendar dispatcher
func (sc *ServerContext) Dispatcher() *dispatch.Dispatcher {
	return sc.dispatcher
}

// CalendarID returns the calendar the server operates on
func (sc *ServerContext) CalendarID() string {
	return sc.calendarID
}

// Scopes returns the OAuth scopes the server requests
func (sc *ServerContext) Scopes() []string {
	return slices.Clone(sc.scopes)
}

// Metrics returns the metrics recorder, or nil when instrumentation is disabled
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when not configured
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// CredentialState reports the credential manager state. It returns
// StateUnauthenticated when no manager is configured.
func (sc *ServerContext) CredentialState() credential.State {
	if sc.credentials == nil {
		return credential.StateUnauthenticated
	}
	return sc.credentials.State()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. In-flight tool calls see their
// context cancelled.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
