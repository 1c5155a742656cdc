package credential

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileStore(path)

	rec := Record{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
	}
	require.NoError(t, store.Save(rec))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, rec.AccessToken, got.AccessToken)
	assert.Equal(t, rec.RefreshToken, got.RefreshToken)
	assert.True(t, rec.Expiry.Equal(got.Expiry))
	assert.Equal(t, rec.Scopes, got.Scopes)
}

func TestFileStore_Load(t *testing.T) {
	tests := []struct {
		name       string
		content    *string
		wantNoRec  bool
		wantErr    bool
		wantAccess string
	}{
		{
			name:      "missing file",
			wantNoRec: true,
			wantErr:   true,
		},
		{
			name:    "malformed json",
			content: ptr("{not json"),
			wantErr: true,
		},
		{
			name:    "no tokens",
			content: ptr(`{"expiry":"2025-03-10T10:00:00Z"}`),
			wantErr: true,
		},
		{
			name:       "refresh token only",
			content:    ptr(`{"access_token":"","refresh_token":"r","expiry":"0001-01-01T00:00:00Z"}`),
			wantAccess: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o600))
			}

			got, err := NewFileStore(path).Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantNoRec, err == ErrNoRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, got.AccessToken)
		})
	}
}

func TestFileStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(Record{AccessToken: "a"}))
	require.NoError(t, store.Delete())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Deleting again is a no-op.
	require.NoError(t, store.Delete())
}

func TestRecord_Valid(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"empty", Record{}, false},
		{"no expiry", Record{AccessToken: "a"}, false},
		{"future", Record{AccessToken: "a", Expiry: now.Add(time.Hour)}, true},
		{"past", Record{AccessToken: "a", Expiry: now.Add(-time.Second)}, false},
		{"within skew", Record{AccessToken: "a", Expiry: now.Add(5 * time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Valid(now))
		})
	}
}

func TestRecord_CloneDoesNotAlias(t *testing.T) {
	rec := Record{AccessToken: "a", Scopes: []string{"s1"}}
	c := rec.Clone()
	c.Scopes[0] = "changed"
	assert.Equal(t, "s1", rec.Scopes[0])
}

func TestFromToken(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "a", RefreshToken: "r"}).WithExtra(map[string]any{
		"scope": "https://www.googleapis.com/auth/calendar openid openid",
	})

	rec := FromToken(tok, []string{"fallback"})
	assert.Equal(t, []string{"https://www.googleapis.com/auth/calendar", "openid"}, rec.Scopes)
	assert.True(t, rec.HasScope("openid"))
	assert.True(t, rec.Refreshable())

	rec = FromToken(&oauth2.Token{AccessToken: "a"}, []string{"fallback"})
	assert.Equal(t, []string{"fallback"}, rec.Scopes)
	assert.False(t, rec.Refreshable())
	assert.Equal(t, "Bearer", rec.Token().TokenType)
}

func ptr(s string) *string {
	return &s
}
