package credential

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long the interactive flow waits for the user.
const DefaultAuthTimeout = 5 * time.Minute

// Authorizer obtains a new record by asking the user for consent.
type Authorizer interface {
	Authorize(ctx context.Context) (Record, error)
}

// AuthorizerOptions configures a LocalServerAuthorizer.
type AuthorizerOptions struct {
	// Port of the loopback callback listener. 0 picks a free port.
	Port int

	// OpenBrowser opens the consent URL in the default browser.
	OpenBrowser bool

	// Timeout for the whole flow. Defaults to DefaultAuthTimeout.
	Timeout time.Duration

	// Output receives the consent URL and instructions. Defaults to os.Stderr
	// because stdout carries the MCP stream.
	Output io.Writer

	// OnAuthURL, when set, is called with the consent URL once the listener is up.
	OnAuthURL func(authURL string)

	// HTTPClient is used for the code exchange. nil means http.DefaultClient.
	HTTPClient *http.Client
}

// LocalServerAuthorizer runs the authorization code flow with PKCE, receiving
// the redirect on a loopback listener.
type LocalServerAuthorizer struct {
	config *oauth2.Config
	opts   AuthorizerOptions
}

type callbackResult struct {
	code string
	err  error
}

// NewLocalServerAuthorizer creates an authorizer for config.
func NewLocalServerAuthorizer(config *oauth2.Config, opts AuthorizerOptions) *LocalServerAuthorizer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAuthTimeout
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &LocalServerAuthorizer{config: config, opts: opts}
}

// Authorize blocks until the user completes consent, the timeout elapses or
// ctx is cancelled. Every failure wraps ErrAuthDenied.
func (a *LocalServerAuthorizer) Authorize(ctx context.Context) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.opts.Port))
	if err != nil {
		return Record{}, fmt.Errorf("%w: failed to start callback listener: %v", ErrAuthDenied, err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	conf := *a.config
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           a.callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	a.announce(authURL)

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return Record{}, fmt.Errorf("%w: %v", ErrAuthDenied, ctx.Err())
	}
	if res.err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrAuthDenied, res.err)
	}

	if a.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.opts.HTTPClient)
	}
	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Record{}, fmt.Errorf("%w: failed to exchange auth code: %v", ErrAuthDenied, err)
	}

	return FromToken(tok, conf.Scopes), nil
}

func (a *LocalServerAuthorizer) announce(authURL string) {
	_, _ = fmt.Fprintf(a.opts.Output, "Authorize Google Calendar access by visiting:\n%s\n", authURL)

	if a.opts.OpenBrowser {
		// pkg/browser echoes the launcher output to stdout by default.
		browser.Stdout = a.opts.Output
		browser.Stderr = a.opts.Output
		if err := browser.OpenURL(authURL); err != nil {
			_, _ = fmt.Fprintf(a.opts.Output, "Could not open a browser (%v), open the link manually.\n", err)
		}
	}

	if a.opts.OnAuthURL != nil {
		a.opts.OnAuthURL(authURL)
	}
}

func (a *LocalServerAuthorizer) callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != state {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("consent refused: %s", q.Get("error"))
			w.WriteHeader(http.StatusForbidden)
			_, _ = fmt.Fprintf(w, "Authorization failed: %s. You can close this page now.\n", html.EscapeString(q.Get("error")))
		case q.Get("code") == "":
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
			_, _ = fmt.Fprintln(w, "Received authentication code. You can close this page now.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
