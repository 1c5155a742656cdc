// Package credential owns the Google OAuth2 credential lifecycle.
//
// The Manager is a small state machine that hands out a valid, non-expired
// access credential on demand. It loads the persisted record from a Store,
// refreshes it with the refresh token when it has expired, and falls back to
// an interactive authorization flow when nothing usable is on disk.
//
// # States
//
//	Unauthenticated -> Loading -> {Valid, NeedsInteractiveAuth, Refreshing} -> Valid | Failed
//
// Failed is terminal for the process: once interactive authorization fails,
// every later call returns an error wrapping ErrNotInitialized instead of
// prompting again.
//
// # Concurrency
//
// All transitions run under a single mutex. Concurrent callers that find the
// record expired wait for the in-flight refresh rather than starting their own,
// so N callers observe exactly one refresh.
//
// # Files
//
// Two files are involved:
//   - the client secret file (credentials.json) downloaded from Google Cloud
//     Console, read-only, required for refresh and interactive authorization
//   - the token file (token.json) written after every successful refresh or
//     authorization
package credential
