package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/util"
)

var _ util.Logger = (*SlogAdapter)(nil)

func TestNewSlogAdapter(t *testing.T) {
	if NewSlogAdapter(nil).Logger() == nil {
		t.Error("nil logger should fall back to slog.Default()")
	}

	logger := slog.Default()
	if NewSlogAdapter(logger).Logger() != logger {
		t.Error("adapter should wrap the provided logger")
	}
}

func TestSlogAdapter_Printf(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Infof("session %s started", "abc")
	adapter.Errorf("write failed: %v", "broken pipe")

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, `msg="session abc started"`) {
		t.Errorf("info output = %q", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, `msg="write failed: broken pipe"`) {
		t.Errorf("error output = %q", out)
	}
}
