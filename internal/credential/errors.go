package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecord is returned by a Store when nothing has been persisted yet.
	ErrNoRecord = errors.New("no stored credential")

	// ErrAuthExpired marks a record that has expired. The Manager handles it
	// internally and never returns it to callers.
	ErrAuthExpired = errors.New("credential expired")

	// ErrAuthDenied is returned when interactive authorization fails or is
	// cancelled by the user.
	ErrAuthDenied = errors.New("authorization denied")

	// ErrNotInitialized is returned by every call once the Manager has reached
	// the Failed state.
	ErrNotInitialized = errors.New("google calendar service not initialized")
)

// ConfigurationError reports a missing or unusable client secret file. It is
// fatal at startup and never retried.
type ConfigurationError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("client secret file %q: %v. Please download your OAuth2 credentials from Google Cloud Console and save them as %q",
		e.Path, e.Err, e.Path)
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
