package credential

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Refresher exchanges a refresh token for a fresh record.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Record, error)
}

// OAuthRefresher performs the refresh grant against the token endpoint of an
// oauth2 configuration.
type OAuthRefresher struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuthRefresher creates a refresher for config. httpClient may be nil to
// use http.DefaultClient.
func NewOAuthRefresher(config *oauth2.Config, httpClient *http.Client) *OAuthRefresher {
	return &OAuthRefresher{config: config, httpClient: httpClient}
}

// Refresh forces a refresh grant. Google usually omits the refresh token from
// the response, in which case the previous one is carried over.
func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (Record, error) {
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	// An expired seed token makes the token source go straight to the refresh grant.
	seed := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	}

	tok, err := r.config.TokenSource(ctx, seed).Token()
	if err != nil {
		return Record{}, fmt.Errorf("failed to refresh token: %w", err)
	}

	rec := FromToken(tok, r.config.Scopes)
	if rec.RefreshToken == "" {
		rec.RefreshToken = refreshToken
	}
	return rec, nil
}
