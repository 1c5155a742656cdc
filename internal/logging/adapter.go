package logging

import (
	"fmt"
	"log/slog"
)

// SlogAdapter exposes an slog.Logger through the printf-style logger
// interface of mcp-go (util.Logger), which the streamable HTTP server and
// the stdio client transport accept.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger, or slog.Default() when nil.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Infof logs at info level.
func (a *SlogAdapter) Infof(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

// Errorf logs at error level.
func (a *SlogAdapter) Errorf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Logger returns the wrapped logger.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}
