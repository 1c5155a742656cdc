package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/logging"
	"github.com/dorisashehi/google-calendar/internal/resources"
	"github.com/dorisashehi/google-calendar/internal/server"
	"github.com/dorisashehi/google-calendar/internal/tools/calendar_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveConfig struct {
	calendarConfig

	Transport string
	HTTPAddr  string
	Metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Google Calendar tools
to AI assistants: create_meeting, list_meetings, delete_meeting and
auto_schedule_meeting.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Credentials:
  The OAuth client secret (--credentials-file) is required. On first use the
  server opens a browser for consent and stores the token in --token-file.
  Expired tokens are refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.loadEnv(cmd)
			envString(cmd, "metrics-addr", "METRICS_ADDR", &cfg.Metrics.Addr)
			envBool(cmd, "metrics-enabled", "METRICS_ENABLED", &cfg.Metrics.Enabled)

			// The metrics port stays closed for stdio unless asked for.
			if cfg.Transport == transportStdio && !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "" {
				cfg.Metrics.Enabled = false
			}

			return runServe(cfg)
		},
	}

	registerCalendarFlags(cmd, &cfg.calendarConfig)
	cmd.Flags().StringVar(&cfg.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg serveConfig) error {
	if cfg.Transport != transportStdio && cfg.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout is the MCP stream, so logs always go to stderr.
	logger := logging.New(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	svc, err := buildServices(cfg.calendarConfig, logger, provider.Metrics(), os.Stderr)
	if err != nil {
		return err
	}

	// Warm up the credential so the first tool call does not block on consent.
	// A failure here is not fatal: every tool call reports it instead.
	if err := svc.Credentials.Init(shutdownCtx); err != nil {
		logger.Warn("credential initialization failed", logging.Err(err),
			slog.String("state", svc.Credentials.State().String()))
	} else {
		logger.Info("credential ready")
	}

	var auditLogger *instrumentation.AuditLogger
	if instrConfig.AuditLogging.Enabled {
		auditLogger = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Credentials: svc.Credentials,
		Dispatcher:  svc.Dispatcher,
		CalendarID:  svc.Calendar.CalendarID(),
		Scopes:      credential.DefaultScopes,
		Metrics:     provider.Metrics(),
		AuditLogger: auditLogger,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.Metrics, provider, server.NewHealthChecker(serverContext))
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpSrv := newMCPServer()
	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	switch cfg.Transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg.HTTPAddr)
	default:
		return runStdioServer(mcpSrv)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("google-calendar", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
}

// registerAll registers the calendar tools and the config resource.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if err := resources.RegisterCalendarResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Calendar resources: %w", err)
	}
	return nil
}

func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, health *server.HealthChecker) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Streamable HTTP server starting on %s\n", addr)
	fmt.Fprintf(os.Stderr, "  HTTP endpoint: %s\n", server.MCPEndpointPath)
	fmt.Fprintf(os.Stderr, "  Health endpoints: /healthz, /readyz, /healthz/detailed\n")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	fmt.Fprintln(os.Stderr, "HTTP server gracefully stopped")
	return nil
}
