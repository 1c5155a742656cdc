package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
)

// Session reads commands line by line and prints one envelope per command.
type Session struct {
	parser   *command.Parser
	executor Executor
	in       io.Reader
	out      io.Writer
	prompt   string
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Dialect  command.Dialect
	Executor Executor
	In       io.Reader
	Out      io.Writer

	// Prompt is printed before each line. Defaults to "> ".
	Prompt string
}

// NewSession creates a Session.
func NewSession(cfg SessionConfig) *Session {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "> "
	}
	return &Session{
		parser:   command.NewParser(cfg.Dialect),
		executor: cfg.Executor,
		in:       cfg.In,
		out:      cfg.Out,
		prompt:   prompt,
	}
}

// Run processes input until an exit word, end of input or ctx cancellation.
// Each command runs to completion before the next line is read.
func (s *Session) Run(ctx context.Context) error {
	dialect := s.parser.Dialect()
	title := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintf(s.out, "%s\n%s", title("Google Calendar ("+dialect.Name+")"), dialect.Help())

	scanner := bufio.NewScanner(s.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, s.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case dialect.IsExit(line):
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case strings.EqualFold(strings.TrimSpace(line), "help"):
			fmt.Fprint(s.out, dialect.Help())
			continue
		}

		env := s.executor.Dispatch(ctx, s.parser.Parse(line))
		PrintEnvelope(s.out, env)
	}
}

// PrintEnvelope writes the message line, colored by outcome, followed by the
// envelope JSON.
func PrintEnvelope(w io.Writer, env dispatch.Envelope) {
	status := color.New(color.FgGreen, color.Bold).SprintFunc()
	if !env.Success {
		status = color.New(color.FgRed, color.Bold).SprintFunc()
	}
	subtle := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintln(w, status(env.Message))
	fmt.Fprintln(w, subtle(env.JSON()))
}
