package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	rec     *Record
	loadErr error
	saves   int
	deletes int
}

func (s *memoryStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return Record{}, s.loadErr
	}
	if s.rec == nil {
		return Record{}, ErrNoRecord
	}
	return s.rec.Clone(), nil
}

func (s *memoryStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := rec.Clone()
	s.rec = &c
	s.saves++
	return nil
}

func (s *memoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	s.deletes++
	return nil
}

type fakeRefresher struct {
	calls atomic.Int32
	delay time.Duration
	rec   Record
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (Record, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Record{}, f.err
	}
	return f.rec, nil
}

type fakeAuthorizer struct {
	calls atomic.Int32
	rec   Record
	err   error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context) (Record, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Record{}, f.err
	}
	return f.rec, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	refresh  map[string]int
	authorzd map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{refresh: map[string]int{}, authorzd: map[string]int{}}
}

func (r *countingRecorder) RecordOAuthTokenRefresh(_ context.Context, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh[result]++
}

func (r *countingRecorder) RecordOAuthAuth(_ context.Context, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorzd[result]++
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRecord(token string) Record {
	return Record{
		AccessToken:  token,
		RefreshToken: "refresh-1",
		Expiry:       testNow.Add(time.Hour),
		Scopes:       DefaultScopes,
	}
}

func expiredRecord(refreshToken string) Record {
	return Record{
		AccessToken:  "stale",
		RefreshToken: refreshToken,
		Expiry:       testNow.Add(-time.Minute),
		Scopes:       DefaultScopes,
	}
}

func newTestManager(store Store, refresher Refresher, authorizer Authorizer) *Manager {
	cfg := ManagerConfig{
		Store:     store,
		Refresher: refresher,
		Logger:    quietLogger(),
		Now:       func() time.Time { return testNow },
	}
	if authorizer != nil {
		cfg.Authorizer = authorizer
	}
	return NewManager(cfg)
}

func TestManager_ValidRecordIsReturnedWithoutRefresh(t *testing.T) {
	rec := validRecord("access-1")
	store := &memoryStore{rec: &rec}
	refresher := &fakeRefresher{}
	authorizer := &fakeAuthorizer{}

	m := newTestManager(store, refresher, authorizer)

	got, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, StateValid, m.State())
	assert.Zero(t, refresher.calls.Load())
	assert.Zero(t, authorizer.calls.Load())
	assert.Zero(t, store.saves)
}

func TestManager_ExpiredRefreshableRefreshesOnce(t *testing.T) {
	rec := expiredRecord("refresh-1")
	store := &memoryStore{rec: &rec}
	refresher := &fakeRefresher{rec: Record{AccessToken: "fresh", Expiry: testNow.Add(time.Hour), RefreshToken: "refresh-1"}}
	recorder := newCountingRecorder()

	m := NewManager(ManagerConfig{
		Store:     store,
		Refresher: refresher,
		Logger:    quietLogger(),
		Recorder:  recorder,
		Now:       func() time.Time { return testNow },
	})

	got, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.AccessToken)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "fresh", store.rec.AccessToken)
	// Scopes are carried over when the refresh response omits them.
	assert.Equal(t, DefaultScopes, got.Scopes)
	assert.Equal(t, 1, recorder.refresh["success"])

	_, err = m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestManager_ConcurrentCallersShareOneRefresh(t *testing.T) {
	rec := expiredRecord("refresh-1")
	store := &memoryStore{rec: &rec}
	refresher := &fakeRefresher{
		delay: 20 * time.Millisecond,
		rec:   Record{AccessToken: "fresh", Expiry: testNow.Add(time.Hour)},
	}

	m := newTestManager(store, refresher, &fakeAuthorizer{})

	const callers = 16
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := m.Current(context.Background())
			tokens[i] = got.AccessToken
			errs[i] = err
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), refresher.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh", tokens[i])
	}
}

func TestManager_LoadingTransitions(t *testing.T) {
	tests := []struct {
		name           string
		store          *memoryStore
		refresherErr   error
		wantRefreshes  int32
		wantAuthorizes int32
	}{
		{
			name:           "no stored record",
			store:          &memoryStore{},
			wantAuthorizes: 1,
		},
		{
			name:           "malformed stored record",
			store:          &memoryStore{loadErr: errors.New("unexpected end of JSON input")},
			wantAuthorizes: 1,
		},
		{
			name: "expired without refresh token",
			store: func() *memoryStore {
				rec := expiredRecord("")
				return &memoryStore{rec: &rec}
			}(),
			wantAuthorizes: 1,
		},
		{
			name: "refresh failure falls back to interactive auth",
			store: func() *memoryStore {
				rec := expiredRecord("revoked")
				return &memoryStore{rec: &rec}
			}(),
			refresherErr:   errors.New("invalid_grant"),
			wantRefreshes:  1,
			wantAuthorizes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{err: tt.refresherErr}
			authorizer := &fakeAuthorizer{rec: validRecord("consented")}

			m := newTestManager(tt.store, refresher, authorizer)

			got, err := m.Current(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "consented", got.AccessToken)
			assert.Equal(t, tt.wantRefreshes, refresher.calls.Load())
			assert.Equal(t, tt.wantAuthorizes, authorizer.calls.Load())
			assert.Equal(t, 1, tt.store.saves)
			assert.Equal(t, StateValid, m.State())
		})
	}
}

func TestManager_FailedIsTerminal(t *testing.T) {
	authorizer := &fakeAuthorizer{err: ErrAuthDenied}
	m := newTestManager(&memoryStore{}, &fakeRefresher{}, authorizer)

	_, err := m.Current(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, err, ErrAuthDenied)
	assert.Equal(t, StateFailed, m.State())

	_, err = m.Current(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, int32(1), authorizer.calls.Load(), "a failed manager must not prompt again")
}

func TestManager_MissingAuthorizerFails(t *testing.T) {
	cfgErr := &ConfigurationError{Path: "credentials.json", Err: errors.New("file not found")}
	m := NewManager(ManagerConfig{
		Store:         &memoryStore{},
		AuthorizerErr: cfgErr,
		Logger:        quietLogger(),
	})

	err := m.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.True(t, IsConfigurationError(err))
}

func TestManager_CancelledRefreshDoesNotFail(t *testing.T) {
	rec := expiredRecord("refresh-1")
	store := &memoryStore{rec: &rec}
	authorizer := &fakeAuthorizer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newTestManager(store, &fakeRefresher{err: context.Canceled}, authorizer)

	_, err := m.Current(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, StateFailed, m.State())
	assert.Zero(t, authorizer.calls.Load())
}

func TestManager_Revoke(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotToken = r.PostForm.Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := validRecord("access-1")
	store := &memoryStore{rec: &rec}
	m := NewManager(ManagerConfig{
		Store:      store,
		Logger:     quietLogger(),
		Now:        func() time.Time { return testNow },
		RevokeURL:  srv.URL,
		HTTPClient: srv.Client(),
		Authorizer: &fakeAuthorizer{},
	})
	require.NoError(t, m.Init(context.Background()))

	require.NoError(t, m.Revoke(context.Background()))
	assert.Equal(t, "refresh-1", gotToken)
	assert.Nil(t, store.rec)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestManager_RevokeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := validRecord("access-1")
	store := &memoryStore{rec: &rec}
	m := NewManager(ManagerConfig{
		Store:      store,
		Logger:     quietLogger(),
		RevokeURL:  srv.URL,
		HTTPClient: srv.Client(),
	})

	err := m.Revoke(context.Background())
	require.Error(t, err)
	assert.NotNil(t, store.rec, "the local record is kept when Google rejects the revocation")
}

// parkedAuthorizer holds Authorize open until release is closed.
type parkedAuthorizer struct {
	entered chan struct{}
	release chan struct{}
	rec     Record
}

func (p *parkedAuthorizer) Authorize(ctx context.Context) (Record, error) {
	close(p.entered)
	select {
	case <-p.release:
		return p.rec, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func TestManager_StateDoesNotWaitForConsent(t *testing.T) {
	authorizer := &parkedAuthorizer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		rec:     validRecord("access-1"),
	}
	m := newTestManager(&memoryStore{}, &fakeRefresher{}, authorizer)

	done := make(chan error, 1)
	go func() {
		_, err := m.Current(context.Background())
		done <- err
	}()
	<-authorizer.entered

	states := make(chan State, 1)
	go func() { states <- m.State() }()

	select {
	case got := <-states:
		assert.Equal(t, StateNeedsInteractiveAuth, got)
	case <-time.After(2 * time.Second):
		t.Fatal("State() blocked while authorization was pending")
	}

	close(authorizer.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateValid, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "needs_interactive_auth", StateNeedsInteractiveAuth.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(42)", State(42).String())
}
