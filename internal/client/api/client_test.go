package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/backendtest"
	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	expired atomic.Int32
}

func (f *fakeSession) Expire() { f.expired.Add(1) }

type fixture struct {
	srv     *backendtest.Server
	store   *credentials.MemoryStore
	session *fakeSession
	metrics *Metrics
	client  *Client
	user    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	f := &fixture{
		srv:     srv,
		store:   credentials.NewMemoryStore(),
		session: &fakeSession{},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}

	c, err := New(Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Store:   f.store,
		Session: f.session,
		Metrics: f.metrics,
	})
	require.NoError(t, err)
	f.client = c
	return f
}

// login creates alice and stores a fresh token pair for her.
func (f *fixture) login(t *testing.T) credentials.Credential {
	t.Helper()
	u, err := f.srv.AddUser("alice", "alice@example.org", "secret")
	require.NoError(t, err)
	f.user = u
	access, refresh := f.srv.Issue("alice")
	cred := credentials.Credential{AccessToken: access, RefreshToken: refresh}
	require.NoError(t, f.store.Save(context.Background(), cred))
	return cred
}

func (f *fixture) me(ctx context.Context) (*Response, error) {
	return f.client.Do(ctx, NewRequest(http.MethodGet, "/users/me"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{BaseURL: "http://localhost"})
	require.Error(t, err, "store is required")

	for _, base := range []string{"", "localhost:8000", "ftp://host", "http://"} {
		_, err := New(Config{BaseURL: base, Store: credentials.NewMemoryStore()})
		require.Error(t, err, base)
	}

	c, err := New(Config{BaseURL: "https://api.example.com/v1/", Store: credentials.NewMemoryStore()})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", c.baseURL)
	assert.Equal(t, DefaultRefreshPath, c.refreshPath)
}

func TestDo_AttachesStoredCredential(t *testing.T) {
	f := newFixture(t)
	cred := f.login(t)

	resp, err := f.me(context.Background())
	require.NoError(t, err)

	var detail models.UserDetail
	require.NoError(t, resp.Decode(&detail))
	assert.Equal(t, f.user.ID, detail.ID)

	calls := f.srv.CallsTo(http.MethodGet, "/users/me")
	require.Len(t, calls, 1)
	assert.Equal(t, cred.AccessToken, calls[0].Token)
	assert.NotEmpty(t, calls[0].RequestID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(OutcomeOK)))
}

func TestDo_WithoutCredential401IsPlainHTTPError(t *testing.T) {
	f := newFixture(t)

	_, err := f.me(context.Background())

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Equal(t, 0, f.srv.RefreshCalls())
	assert.Equal(t, int32(0), f.session.expired.Load())
	assert.Empty(t, f.srv.CallsTo(http.MethodGet, "/users/me")[0].Token)
}

func TestDo_ExpiredTokenRefreshesOnceAndReplays(t *testing.T) {
	f := newFixture(t)
	old := f.login(t)
	f.srv.ExpireAccessTokens()

	resp, err := f.me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail models.UserDetail
	require.NoError(t, resp.Decode(&detail))
	assert.Equal(t, "alice", detail.Username)

	assert.Equal(t, 1, f.srv.RefreshCalls())
	calls := f.srv.CallsTo(http.MethodGet, "/users/me")
	require.Len(t, calls, 2)
	assert.Equal(t, http.StatusUnauthorized, calls[0].Status)
	assert.Equal(t, http.StatusOK, calls[1].Status)
	assert.Equal(t, calls[0].RequestID, calls[1].RequestID, "replay keeps the request id")

	cur, _, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cur.AccessToken, calls[1].Token)
	assert.NotEqual(t, old.AccessToken, cur.AccessToken)
	assert.NotEqual(t, old.RefreshToken, cur.RefreshToken, "rotated refresh token is stored")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues(RefreshSuccess)))
}

func TestDo_ReplaysBody(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	req, err := NewJSONRequest(http.MethodPost, "/users/"+f.user.ID.String()+"/chats", models.ChatCreate{Name: "Notes", UserID: f.user.ID})
	require.NoError(t, err)
	resp, err := f.client.Do(context.Background(), req)
	require.NoError(t, err)
	var chat models.Chat
	require.NoError(t, resp.Decode(&chat))

	f.srv.ExpireAccessTokens()

	msg, err := NewJSONRequest(http.MethodPost, "/chats/"+chat.ID.String()+"/messages", models.Message{Content: "hello", FromUser: true})
	require.NoError(t, err)
	_, err = f.client.Do(context.Background(), msg)
	require.NoError(t, err)

	stored := f.srv.Messages(chat.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "hello", stored[0].Content)
}

func TestDo_ConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	const n = 8
	f := newFixture(t)
	f.login(t)
	f.srv.ExpireAccessTokens()
	release := f.srv.HoldRefresh()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.me(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return f.srv.Unauthorized() >= n }, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, 1, f.srv.RefreshCalls())

	cur, _, _ := f.store.Load(context.Background())
	var replays int
	for _, c := range f.srv.CallsTo(http.MethodGet, "/users/me") {
		if c.Status == http.StatusOK {
			replays++
			assert.Equal(t, cur.AccessToken, c.Token)
		}
	}
	assert.Equal(t, n, replays)
	assert.Equal(t, float64(n), testutil.ToFloat64(f.metrics.Retries))
}

func TestDo_RefreshFailureExpiresEveryWaiter(t *testing.T) {
	const n = 4
	f := newFixture(t)
	f.login(t)
	f.srv.ExpireAccessTokens()
	f.srv.SetRefreshStatus(http.StatusUnauthorized)
	release := f.srv.HoldRefresh()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.me(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return f.srv.Unauthorized() >= n }, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, ErrAuthExpired)
		var ae *AuthExpiredError
		require.ErrorAs(t, err, &ae)
		var he *HTTPError
		assert.False(t, errors.As(err, &he), "the 401 must not leak through")
	}

	cur, _, _ := f.store.Load(context.Background())
	assert.True(t, cur.Empty(), "store is cleared")
	assert.Equal(t, int32(1), f.session.expired.Load())
	assert.Equal(t, 1, f.srv.RefreshCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues(RefreshFailure)))
	assert.Equal(t, float64(n), testutil.ToFloat64(f.metrics.Requests.WithLabelValues(OutcomeAuthExpired)))
}

func TestDo_RefreshServerErrorAlsoExpires(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.ExpireAccessTokens()
	f.srv.SetRefreshStatus(http.StatusInternalServerError)

	_, err := f.me(context.Background())

	var ae *AuthExpiredError
	require.ErrorAs(t, err, &ae)
	var se *ServerError
	assert.ErrorAs(t, ae.Cause, &se)
	cur, _, _ := f.store.Load(context.Background())
	assert.True(t, cur.Empty())
}

func TestDo_SecondUnauthorizedIsFinal(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.RejectAllTokens(true)

	_, err := f.me(context.Background())

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Equal(t, 1, f.srv.RefreshCalls())
	assert.Len(t, f.srv.CallsTo(http.MethodGet, "/users/me"), 2, "no second retry")

	cur, _, _ := f.store.Load(context.Background())
	assert.False(t, cur.Empty(), "refresh itself succeeded, credential kept")
	assert.Equal(t, int32(0), f.session.expired.Load())
}

func TestDo_NetworkErrorLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	cred := f.login(t)
	_, genBefore, _ := f.store.Load(context.Background())
	f.srv.Close()

	_, err := f.me(context.Background())

	require.ErrorIs(t, err, ErrUnavailable)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)

	cur, gen, _ := f.store.Load(context.Background())
	assert.Equal(t, cred, cur)
	assert.Equal(t, genBefore, gen)
	assert.Equal(t, int32(0), f.session.expired.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(OutcomeNetwork)))
}

func TestDo_ServerErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.Inject("GET /users/me", http.StatusServiceUnavailable)

	_, err := f.me(context.Background())

	require.ErrorIs(t, err, ErrServer)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Len(t, f.srv.CallsTo(http.MethodGet, "/users/me"), 1)
	assert.Equal(t, 0, f.srv.RefreshCalls())
}

func TestDo_ClientErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.client.Do(context.Background(), NewRequest(http.MethodGet, "/chats/00000000-0000-0000-0000-000000000000/messages"))

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
	assert.Contains(t, he.Error(), "Chat not found")
}

func TestDo_LogoutDuringRefreshDiscardsResult(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.ExpireAccessTokens()
	release := f.srv.HoldRefresh()

	done := make(chan error, 1)
	go func() {
		_, err := f.me(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return f.srv.RefreshCalls() == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, f.store.Clear(context.Background()))
	release()

	err := <-done
	var ae *AuthExpiredError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, ae.Cause, ErrSessionChanged)

	cur, _, _ := f.store.Load(context.Background())
	assert.True(t, cur.Empty(), "logout must stay in effect")
	assert.Equal(t, int32(0), f.session.expired.Load(), "logout already moved the session")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues(RefreshDiscarded)))
}

func TestDo_RefreshWithoutRotationKeepsRefreshToken(t *testing.T) {
	f := newFixture(t)
	old := f.login(t)
	f.srv.SetRotateRefresh(false)
	f.srv.ExpireAccessTokens()

	_, err := f.me(context.Background())
	require.NoError(t, err)

	cur, _, _ := f.store.Load(context.Background())
	assert.Equal(t, old.RefreshToken, cur.RefreshToken)
	assert.NotEqual(t, old.AccessToken, cur.AccessToken)

	f.srv.ExpireAccessTokens()
	_, err = f.me(context.Background())
	require.NoError(t, err, "kept refresh token still works")
	assert.Equal(t, 2, f.srv.RefreshCalls())
}

func TestDo_AccessOnlyCredentialExpiresWithoutCallingRefresh(t *testing.T) {
	f := newFixture(t)
	full := f.login(t)
	require.NoError(t, f.store.Save(context.Background(), credentials.Credential{AccessToken: full.AccessToken}))
	f.srv.ExpireAccessTokens()

	_, err := f.me(context.Background())

	var ae *AuthExpiredError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, ae.Cause, ErrNoRefreshToken)
	assert.Equal(t, 0, f.srv.RefreshCalls())
	assert.Equal(t, int32(1), f.session.expired.Load())
}

func TestDo_CancelledWaiterDoesNotCancelRefresh(t *testing.T) {
	f := newFixture(t)
	old := f.login(t)
	f.srv.ExpireAccessTokens()
	release := f.srv.HoldRefresh()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.me(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.srv.RefreshCalls() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	release()
	require.Eventually(t, func() bool {
		cur, _, _ := f.store.Load(context.Background())
		return cur.AccessToken != old.AccessToken && !cur.Empty()
	}, 5*time.Second, 5*time.Millisecond, "refresh completes for the others")
}

func TestRefresh_SkipsEndpointWhenTokenAlreadyReplaced(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	res := f.client.refresh(context.Background(), "an-older-token")

	require.NoError(t, res.err)
	cur, _, _ := f.store.Load(context.Background())
	assert.Equal(t, cur.AccessToken, res.token)
	assert.Equal(t, 0, f.srv.RefreshCalls())
}
