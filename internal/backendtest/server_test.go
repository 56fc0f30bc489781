package backendtest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_LoginAndMe(t *testing.T) {
	s := New()
	defer s.Close()

	u, err := s.AddUser("alice", "alice@example.org", "pw")
	require.NoError(t, err)

	resp, err := http.PostForm(s.URL+"/auth/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair models.TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	me := get(t, s, "/users/me", pair.AccessToken)
	require.Equal(t, http.StatusOK, me.StatusCode)
	var detail models.UserDetail
	require.NoError(t, json.NewDecoder(me.Body).Decode(&detail))
	assert.Equal(t, u.ID, detail.ID)
}

func TestServer_ExpireAndRotate(t *testing.T) {
	s := New()
	defer s.Close()

	_, err := s.AddUser("bob", "bob@example.org", "pw")
	require.NoError(t, err)
	access, refresh := s.Issue("bob")

	s.ExpireAccessTokens()
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/users/me", access).StatusCode)
	assert.Equal(t, 1, s.Unauthorized())

	body := strings.NewReader(`{"refreshToken":"` + refresh + `"}`)
	resp, err := http.Post(s.URL+"/auth/refresh", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEqual(t, refresh, out["refreshToken"], "refresh token must rotate")
	assert.Equal(t, http.StatusOK, get(t, s, "/users/me", out["accessToken"]).StatusCode)

	reuse, err := http.Post(s.URL+"/auth/refresh", "application/json", strings.NewReader(`{"refreshToken":"`+refresh+`"}`))
	require.NoError(t, err)
	defer reuse.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, reuse.StatusCode, "consumed refresh token is invalid")
	assert.Equal(t, 2, s.RefreshCalls())
}

func TestServer_Inject(t *testing.T) {
	s := New()
	defer s.Close()

	s.Inject("GET /users/me", http.StatusBadGateway)
	assert.Equal(t, http.StatusBadGateway, get(t, s, "/users/me", "").StatusCode)

	s.Inject("GET /users/me", 0)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/users/me", "").StatusCode)

	calls := s.CallsTo(http.MethodGet, "/users/me")
	require.Len(t, calls, 2)
	assert.Equal(t, http.StatusBadGateway, calls[0].Status)
}
