package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultScopes are the OAuth scopes requested for calendar access.
var DefaultScopes = []string{
	calendar.CalendarScope, // Full calendar access (create, list, delete events)
}

// LoadClientConfig reads the OAuth client secret file downloaded from Google
// Cloud Console and returns the oauth2 configuration for scopes. A missing or
// unparsable file is reported as a *ConfigurationError.
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{Path: path, Err: errors.New("file not found")}
		}
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("invalid client secret: %w", err)}
	}

	return conf, nil
}
