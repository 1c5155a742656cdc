package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dorisashehi/google-calendar/internal/credential"
	"github.com/dorisashehi/google-calendar/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored Google OAuth token",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRevokeCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		cfg   calendarConfig
		force bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize calendar access and store the token",
		Long: `Load the stored token, refreshing it if it expired, or run the browser
consent flow when there is none. Use --force to discard the stored token and
authorize again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.loadEnv(cmd)
			logger := logging.New(os.Stderr, cfg.Debug)

			if force {
				if err := credential.NewFileStore(cfg.TokenFile).Delete(); err != nil {
					return err
				}
			}

			manager, err := newCredentialManager(cfg, logger, nil, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := manager.Init(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Token stored in %s\n", color.GreenString("✓"), cfg.TokenFile)
			return nil
		},
	}

	registerCalendarFlags(cmd, &cfg)
	cmd.Flags().BoolVar(&force, "force", false, "Discard the stored token and authorize again")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var tokenFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored token's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			envString(cmd, "token-file", "GOOGLE_CALENDAR_TOKEN_FILE", &tokenFile)
			return printAuthStatus(cmd.OutOrStdout(), credential.NewFileStore(tokenFile), time.Now())
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", "token.json", "File the OAuth token is stored in. Can also use GOOGLE_CALENDAR_TOKEN_FILE env var.")
	return cmd
}

func newAuthRevokeCmd() *cobra.Command {
	var (
		tokenFile string
		debug     bool
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the stored token at Google and delete it",
		RunE: func(cmd *cobra.Command, args []string) error {
			envString(cmd, "token-file", "GOOGLE_CALENDAR_TOKEN_FILE", &tokenFile)

			manager := credential.NewManager(credential.ManagerConfig{
				Store:  credential.NewFileStore(tokenFile),
				Logger: logging.New(os.Stderr, debug),
			})
			if err := manager.Revoke(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Token revoked and %s removed\n", color.GreenString("✓"), tokenFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", "token.json", "File the OAuth token is stored in. Can also use GOOGLE_CALENDAR_TOKEN_FILE env var.")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func printAuthStatus(w io.Writer, store *credential.FileStore, now time.Time) error {
	rec, err := store.Load()
	if errors.Is(err, credential.ErrNoRecord) {
		fmt.Fprintf(w, "%s No token in %s. Run 'google-calendar auth login'.\n", color.YellowString("!"), store.Path())
		return nil
	}
	if err != nil {
		return err
	}

	state := color.GreenString("valid")
	switch {
	case rec.Valid(now):
	case rec.Refreshable():
		state = color.YellowString("expired, refreshable")
	default:
		state = color.RedString("expired")
	}

	fmt.Fprintf(w, "Token file: %s\n", store.Path())
	fmt.Fprintf(w, "State:      %s\n", state)
	if !rec.Expiry.IsZero() {
		fmt.Fprintf(w, "Expiry:     %s\n", rec.Expiry.Local().Format(time.RFC1123))
	}
	if len(rec.Scopes) > 0 {
		fmt.Fprintf(w, "Scopes:     %s\n", strings.Join(rec.Scopes, ", "))
	}
	return nil
}
