package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dorisashehi/google-calendar/internal/server"
)

// CalendarConfigURI is the URI of the configuration resource.
const CalendarConfigURI = "config://calendar"

// SetupInstructions are the steps to obtain a client secret file.
var SetupInstructions = []string{
	"1. Go to Google Cloud Console",
	"2. Create a new project or select existing",
	"3. Enable Google Calendar API",
	"4. Create OAuth2 credentials",
	"5. Download credentials.json to this directory",
}

// CalendarConfig is the body of config://calendar.
type CalendarConfig struct {
	Service             string   `json:"service"`
	Scopes              []string `json:"scopes"`
	CredentialsRequired bool     `json:"credentials_required"`
	SetupInstructions   []string `json:"setup_instructions"`
	CalendarID          string   `json:"calendar_id"`
	CredentialState     string   `json:"credential_state"`
}

// RegisterCalendarResources registers config://calendar.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	configResource := mcp.NewResource(
		CalendarConfigURI,
		"Calendar Configuration",
		mcp.WithResourceDescription("Google Calendar configuration and credential setup instructions"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarConfig(ctx, request, sc)
	})
	return nil
}

func handleCalendarConfig(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	config := CalendarConfig{
		Service:             "Google Calendar",
		Scopes:              sc.Scopes(),
		CredentialsRequired: true,
		SetupInstructions:   SetupInstructions,
		CalendarID:          sc.CalendarID(),
		CredentialState:     sc.CredentialState().String(),
	}
	if config.Scopes == nil {
		config.Scopes = []string{}
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar config: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
