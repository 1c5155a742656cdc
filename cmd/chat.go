package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dorisashehi/google-calendar/internal/client"
	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/logging"
	"github.com/dorisashehi/google-calendar/internal/schedule"
)

type chatConfig struct {
	calendarConfig

	Dialect string
	Remote  bool
}

func newChatCmd() *cobra.Command {
	var cfg chatConfig

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Manage the calendar with typed commands",
		Long: `Read commands from standard input and run them against Google Calendar.

Dialects:
  menu   list | 1, schedule | 2 <text>, auto | 3 <title> [for <minutes>],
         delete | 4 <event id>, quit | exit | 5
  agent  list, schedule <text>, auto <title> [for <minutes>], quit

By default commands run in process. With --remote, the command starts
"google-calendar serve" as a subprocess and sends every command to it as an
MCP tool call over stdio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.loadEnv(cmd)
			return runChat(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	registerCalendarFlags(cmd, &cfg.calendarConfig)
	cmd.Flags().StringVar(&cfg.Dialect, "dialect", command.Menu.Name, "Command dialect: menu or agent")
	cmd.Flags().BoolVar(&cfg.Remote, "remote", false, "Send commands to a spawned MCP server instead of running them in process")

	return cmd
}

func runChat(ctx context.Context, cfg chatConfig, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dialect, err := command.DialectByName(cfg.Dialect)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Debug)

	var executor client.Executor
	if cfg.Remote {
		tier, err := schedule.ParseTier(cfg.TimeParsing)
		if err != nil {
			return err
		}

		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}

		remote, err := client.Spawn(ctx, client.SpawnConfig{
			Command: self,
			Args:    cfg.serveArgs(),
			Env:     os.Environ(),
			Stderr:  os.Stderr,
			Version: version,
		}, schedule.NewResolver(tier, nil), logger)
		if err != nil {
			return err
		}
		defer func() { _ = remote.Close() }()
		executor = remote
	} else {
		svc, err := buildServices(cfg.calendarConfig, logger, nil, os.Stderr)
		if err != nil {
			return err
		}
		executor = svc.Dispatcher
	}

	session := client.NewSession(client.SessionConfig{
		Dialect:  dialect,
		Executor: executor,
		In:       in,
		Out:      out,
	})
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// serveArgs forwards the shared settings to the spawned server.
func (c chatConfig) serveArgs() []string {
	args := []string{
		"serve",
		"--transport", transportStdio,
		"--credentials-file", c.CredentialsFile,
		"--token-file", c.TokenFile,
		"--calendar-id", c.CalendarID,
		"--time-parsing", c.TimeParsing,
		"--auth-port", strconv.Itoa(c.AuthPort),
	}
	if c.NoBrowser {
		args = append(args, "--no-browser")
	}
	if c.Debug {
		args = append(args, "--debug")
	}
	return args
}
