package credential

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta is how early a record is treated as expired. It matches the
// default used by golang.org/x/oauth2 so a token is never handed to the
// backend just before it lapses.
const expiryDelta = 10 * time.Second

// Record is the persisted OAuth2 credential.
type Record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Valid reports whether the record carries an access token that has not
// expired at now.
func (r Record) Valid(now time.Time) bool {
	if r.AccessToken == "" {
		return false
	}
	if r.Expiry.IsZero() {
		return false
	}
	return now.Add(expiryDelta).Before(r.Expiry)
}

// Refreshable reports whether the record can be renewed without user interaction.
func (r Record) Refreshable() bool {
	return r.RefreshToken != ""
}

// HasScope reports whether scope was granted.
func (r Record) HasScope(scope string) bool {
	return slices.Contains(r.Scopes, scope)
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	r.Scopes = slices.Clone(r.Scopes)
	return r
}

// Token converts the record into an oauth2 token suitable for a bearer transport.
func (r Record) Token() *oauth2.Token {
	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    tokenType,
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
	}
}

// FromToken builds a record from an oauth2 token. Granted scopes are read from
// the "scope" extra field of the token response when present, otherwise
// fallbackScopes is used.
func FromToken(tok *oauth2.Token, fallbackScopes []string) Record {
	rec := Record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}

	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		rec.Scopes = strings.Fields(raw)
	} else {
		rec.Scopes = slices.Clone(fallbackScopes)
	}
	slices.Sort(rec.Scopes)
	rec.Scopes = slices.Compact(rec.Scopes)

	return rec
}
