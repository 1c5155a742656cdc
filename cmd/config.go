package cmd

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/dorisashehi/google-calendar/internal/calendar"
	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
	"github.com/dorisashehi/google-calendar/internal/instrumentation"
	"github.com/dorisashehi/google-calendar/internal/schedule"
)

// calendarConfig holds the settings shared by serve, chat and auth.
type calendarConfig struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
	TimeParsing     string
	AuthPort        int
	NoBrowser       bool
	Debug           bool
}

// registerCalendarFlags binds the shared flags to cmd.
func registerCalendarFlags(cmd *cobra.Command, cfg *calendarConfig) {
	cmd.Flags().StringVar(&cfg.CredentialsFile, "credentials-file", "credentials.json", "OAuth client secret file downloaded from Google Cloud Console. Can also use GOOGLE_CALENDAR_CREDENTIALS_FILE env var.")
	cmd.Flags().StringVar(&cfg.TokenFile, "token-file", "token.json", "File the OAuth token is stored in. Can also use GOOGLE_CALENDAR_TOKEN_FILE env var.")
	cmd.Flags().StringVar(&cfg.CalendarID, "calendar-id", "primary", "Calendar to operate on. Can also use GOOGLE_CALENDAR_ID env var.")
	cmd.Flags().StringVar(&cfg.TimeParsing, "time-parsing", string(schedule.TierNatural), "Free-text time parsing: natural or basic. Can also use GOOGLE_CALENDAR_TIME_PARSING env var.")
	cmd.Flags().IntVar(&cfg.AuthPort, "auth-port", 0, "Port for the OAuth callback listener (0 picks a free port)")
	cmd.Flags().BoolVar(&cfg.NoBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
}

// loadEnv fills in settings whose flag was not set explicitly.
func (c *calendarConfig) loadEnv(cmd *cobra.Command) {
	envString(cmd, "credentials-file", "GOOGLE_CALENDAR_CREDENTIALS_FILE", &c.CredentialsFile)
	envString(cmd, "token-file", "GOOGLE_CALENDAR_TOKEN_FILE", &c.TokenFile)
	envString(cmd, "calendar-id", "GOOGLE_CALENDAR_ID", &c.CalendarID)
	envString(cmd, "time-parsing", "GOOGLE_CALENDAR_TIME_PARSING", &c.TimeParsing)
}

// envString overrides *dst with the environment variable unless the flag was
// given on the command line.
func envString(cmd *cobra.Command, flag, env string, dst *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// envBool is envString for boolean flags. Unparsable values are ignored.
func envBool(cmd *cobra.Command, flag, env string, dst *bool) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// services is the object graph behind the MCP tools and the chat client.
type services struct {
	Credentials *credential.Manager
	Resolver    *schedule.Resolver
	Calendar    *calendar.Client
	Dispatcher  *dispatch.Dispatcher
}

// buildServices wires the credential manager, resolver, calendar client and
// dispatcher. A missing client secret file is returned as a
// *credential.ConfigurationError.
func buildServices(cfg calendarConfig, logger *slog.Logger, metrics *instrumentation.Metrics, authOutput io.Writer) (*services, error) {
	tier, err := schedule.ParseTier(cfg.TimeParsing)
	if err != nil {
		return nil, err
	}

	manager, err := newCredentialManager(cfg, logger, metrics, authOutput)
	if err != nil {
		return nil, err
	}

	resolver := schedule.NewResolver(tier, nil)
	client := calendar.NewClient(calendar.Config{
		CalendarID: cfg.CalendarID,
		Metrics:    metrics,
		Logger:     logger,
	})

	return &services{
		Credentials: manager,
		Resolver:    resolver,
		Calendar:    client,
		Dispatcher: dispatch.New(dispatch.Config{
			Credentials: manager,
			Calendar:    client,
			Resolver:    resolver,
			Logger:      logger,
		}),
	}, nil
}

func newCredentialManager(cfg calendarConfig, logger *slog.Logger, metrics *instrumentation.Metrics, authOutput io.Writer) (*credential.Manager, error) {
	oauthConfig, err := credential.LoadClientConfig(cfg.CredentialsFile, credential.DefaultScopes...)
	if err != nil {
		return nil, err
	}

	mcfg := credential.ManagerConfig{
		Store:      credential.NewFileStore(cfg.TokenFile),
		Refresher:  credential.NewOAuthRefresher(oauthConfig, nil),
		Authorizer: newAuthorizer(cfg, oauthConfig, authOutput),
		Logger:     logger,
	}
	// A nil *Metrics stored in the interface would not be nil to the Manager.
	if metrics != nil {
		mcfg.Recorder = metrics
	}
	return credential.NewManager(mcfg), nil
}

func newAuthorizer(cfg calendarConfig, oauthConfig *oauth2.Config, out io.Writer) *credential.LocalServerAuthorizer {
	return credential.NewLocalServerAuthorizer(oauthConfig, credential.AuthorizerOptions{
		Port:        cfg.AuthPort,
		OpenBrowser: !cfg.NoBrowser,
		Output:      out,
	})
}
