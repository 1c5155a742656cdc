package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dorisashehi/google-calendar/internal/logging"
)

// GoogleRevokeURL is Google's OAuth2 token revocation endpoint.
const GoogleRevokeURL = "https://oauth2.googleapis.com/revoke"

// State is a Manager lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateValid
	StateNeedsInteractiveAuth
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateValid:
		return "valid"
	case StateNeedsInteractiveAuth:
		return "needs_interactive_auth"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Recorder receives credential lifecycle metrics. *instrumentation.Metrics
// satisfies it.
type Recorder interface {
	RecordOAuthTokenRefresh(ctx context.Context, result string)
	RecordOAuthAuth(ctx context.Context, result string)
}

// ManagerConfig holds the Manager's collaborators. Only Store is required.
type ManagerConfig struct {
	Store Store

	// Refresher renews expired records. nil disables refresh.
	Refresher Refresher

	// Authorizer runs interactive consent. nil means the client secret is not
	// available and any need for consent moves the Manager to Failed.
	Authorizer Authorizer

	// AuthorizerErr explains why Authorizer is nil. It becomes the cause of the
	// Failed state.
	AuthorizerErr error

	Logger   *slog.Logger
	Recorder Recorder

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// RevokeURL defaults to GoogleRevokeURL.
	RevokeURL  string
	HTTPClient *http.Client
}

// Manager hands out valid credentials, refreshing or re-authorizing as needed.
// It is safe for concurrent use.
type Manager struct {
	store         Store
	refresher     Refresher
	authorizer    Authorizer
	authorizerErr error
	logger        *slog.Logger
	recorder      Recorder
	now           func() time.Time
	revokeURL     string
	httpClient    *http.Client

	mu      sync.Mutex
	state   State
	current Record
	failure error

	// published mirrors state for readers that must not wait on mu, which is
	// held for the length of a refresh or an interactive authorization.
	published atomic.Int32
}

// NewManager creates a Manager in the Unauthenticated state.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		store:         cfg.Store,
		refresher:     cfg.Refresher,
		authorizer:    cfg.Authorizer,
		authorizerErr: cfg.AuthorizerErr,
		logger:        cfg.Logger,
		recorder:      cfg.Recorder,
		now:           cfg.Now,
		revokeURL:     cfg.RevokeURL,
		httpClient:    cfg.HTTPClient,
		state:         StateUnauthenticated,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.published.Store(int32(StateUnauthenticated))
	m.logger = logging.WithService(m.logger, "credential")
	if m.now == nil {
		m.now = time.Now
	}
	if m.revokeURL == "" {
		m.revokeURL = GoogleRevokeURL
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.authorizer == nil && m.authorizerErr == nil {
		m.authorizerErr = errors.New("no interactive authorizer configured")
	}
	return m
}

// State returns the current lifecycle state. It never blocks, even while a
// caller of Current is waiting for consent.
func (m *Manager) State() State {
	return State(m.published.Load())
}

// Init drives the Manager to Valid or Failed. It is the eager warm-up run at
// server start.
func (m *Manager) Init(ctx context.Context) error {
	_, err := m.Current(ctx)
	return err
}

// Current returns a copy of a valid record. Callers that arrive while another
// caller is refreshing or authorizing wait for that transition and share its
// outcome.
func (m *Manager) Current(ctx context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		switch m.state {
		case StateUnauthenticated:
			m.setState(StateLoading)

		case StateLoading:
			m.load()

		case StateValid:
			if m.current.Valid(m.now()) {
				return m.current.Clone(), nil
			}
			m.logger.Debug("credential expired", slog.Time("expiry", m.current.Expiry))
			m.expired()

		case StateRefreshing:
			if err := m.refresh(ctx); err != nil {
				return Record{}, err
			}

		case StateNeedsInteractiveAuth:
			if err := m.authorize(ctx); err != nil {
				return Record{}, err
			}

		case StateFailed:
			return Record{}, m.failure
		}
	}
}

// Revoke invalidates the stored credential at Google, deletes it from the
// store and returns the Manager to Unauthenticated. A Failed Manager is reset
// as well so a later call can authorize again.
func (m *Manager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.current
	if rec.AccessToken == "" && rec.RefreshToken == "" {
		if loaded, err := m.store.Load(); err == nil {
			rec = loaded
		}
	}

	token := rec.RefreshToken
	if token == "" {
		token = rec.AccessToken
	}
	if token != "" {
		if err := m.revokeAtGoogle(ctx, token); err != nil {
			return err
		}
	}

	if err := m.store.Delete(); err != nil {
		return err
	}

	m.current = Record{}
	m.failure = nil
	m.setState(StateUnauthenticated)
	m.logger.Info("credential revoked")
	return nil
}

func (m *Manager) revokeAtGoogle(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Google answers 400 invalid_token for tokens that are already revoked or
	// expired, which leaves nothing to undo remotely.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("failed to revoke token: status %d", resp.StatusCode)
	}
	return nil
}

func (m *Manager) load() {
	rec, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNoRecord):
		m.logger.Info("no stored credential, interactive authorization required")
		m.setState(StateNeedsInteractiveAuth)
		return
	case err != nil:
		m.logger.Warn("stored credential unusable, interactive authorization required", logging.Err(err))
		m.setState(StateNeedsInteractiveAuth)
		return
	}

	m.current = rec
	if rec.Valid(m.now()) {
		m.setState(StateValid)
		return
	}
	m.expired()
}

func (m *Manager) expired() {
	if m.current.Refreshable() && m.refresher != nil {
		m.setState(StateRefreshing)
		return
	}
	m.setState(StateNeedsInteractiveAuth)
}

func (m *Manager) refresh(ctx context.Context) error {
	rec, err := m.refresher.Refresh(ctx, m.current.RefreshToken)
	if err != nil {
		if ctx.Err() != nil {
			// The caller went away; leave the expired record for the next caller.
			m.setState(StateValid)
			return ctx.Err()
		}
		m.record(func(r Recorder) { r.RecordOAuthTokenRefresh(ctx, "failure") })
		m.logger.Warn("token refresh failed, interactive authorization required", logging.Err(err))
		m.setState(StateNeedsInteractiveAuth)
		return nil
	}

	m.record(func(r Recorder) { r.RecordOAuthTokenRefresh(ctx, "success") })
	m.accept(rec)
	return nil
}

func (m *Manager) authorize(ctx context.Context) error {
	if m.authorizer == nil {
		m.fail(ctx, m.authorizerErr)
		return nil
	}

	rec, err := m.authorizer.Authorize(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.fail(ctx, err)
		return nil
	}

	m.record(func(r Recorder) { r.RecordOAuthAuth(ctx, "success") })
	m.accept(rec)
	return nil
}

func (m *Manager) accept(rec Record) {
	if len(rec.Scopes) == 0 {
		rec.Scopes = m.current.Scopes
	}
	m.current = rec.Clone()
	if err := m.store.Save(m.current); err != nil {
		m.logger.Error("failed to persist credential", logging.Err(err))
	}
	m.setState(StateValid)
}

func (m *Manager) fail(ctx context.Context, cause error) {
	m.record(func(r Recorder) { r.RecordOAuthAuth(ctx, "failure") })
	m.failure = fmt.Errorf("%w: %w", ErrNotInitialized, cause)
	m.current = Record{}
	m.logger.Error("credential unavailable", logging.Err(cause))
	m.setState(StateFailed)
}

func (m *Manager) setState(s State) {
	if m.state != s {
		m.logger.Debug("credential state change",
			slog.String("from", m.state.String()),
			slog.String("to", s.String()))
	}
	m.state = s
	m.published.Store(int32(s))
}

func (m *Manager) record(fn func(Recorder)) {
	if m.recorder != nil {
		fn(m.recorder)
	}
}
