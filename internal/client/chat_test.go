package client

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorisashehi/google-calendar/internal/command"
	"github.com/dorisashehi/google-calendar/internal/dispatch"
)

type fakeExecutor struct {
	intents []command.Intent
}

func (f *fakeExecutor) Dispatch(_ context.Context, intent command.Intent) dispatch.Envelope {
	f.intents = append(f.intents, intent)
	return dispatch.Envelope{Success: true, Message: "ran " + intent.Name()}
}

func init() {
	color.NoColor = true
}

func runSession(t *testing.T, dialect command.Dialect, input string) (*fakeExecutor, string) {
	t.Helper()
	exec := &fakeExecutor{}
	var out bytes.Buffer
	s := NewSession(SessionConfig{
		Dialect:  dialect,
		Executor: exec,
		In:       strings.NewReader(input),
		Out:      &out,
	})
	require.NoError(t, s.Run(context.Background()))
	return exec, out.String()
}

func TestSession_Run(t *testing.T) {
	tests := []struct {
		name      string
		dialect   command.Dialect
		input     string
		wantNames []string
		wantBye   bool
	}{
		{
			name:      "menu stops at numeric exit",
			dialect:   command.Menu,
			input:     "1\n3 standup for 15\n5\nlist\n",
			wantNames: []string{"list", "auto_schedule"},
			wantBye:   true,
		},
		{
			name:      "agent quit",
			dialect:   command.Agent,
			input:     "schedule tomorrow at 2pm a@x.com\nQUIT\n",
			wantNames: []string{"create"},
			wantBye:   true,
		},
		{
			name:      "blank lines and help are not dispatched",
			dialect:   command.Menu,
			input:     "\n   \nhelp\nlist 3\n",
			wantNames: []string{"list"},
		},
		{
			name:      "unknown input still dispatched",
			dialect:   command.Agent,
			input:     "delete abc\n",
			wantNames: []string{"unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, out := runSession(t, tt.dialect, tt.input)

			names := make([]string, 0, len(exec.intents))
			for _, in := range exec.intents {
				names = append(names, in.Name())
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantBye, strings.Contains(out, "Goodbye!"))
			assert.Contains(t, out, "Commands:")
		})
	}
}

func TestSession_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(SessionConfig{
		Dialect:  command.Menu,
		Executor: &fakeExecutor{},
		In:       strings.NewReader("list\n"),
		Out:      &bytes.Buffer{},
	})
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}

func TestPrintEnvelope(t *testing.T) {
	var out bytes.Buffer
	PrintEnvelope(&out, dispatch.Envelope{Success: false, Error: "boom", Message: "Failed to list events: boom"})

	lines := strings.SplitN(out.String(), "\n", 2)
	assert.Equal(t, "Failed to list events: boom", lines[0])
	assert.Contains(t, lines[1], `"error": "boom"`)
	assert.Contains(t, lines[1], `"success": false`)
}
