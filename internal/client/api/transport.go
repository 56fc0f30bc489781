package api

import (
	"context"
	"net/http"

	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
)

type ctxKey int

const accessTokenKey ctxKey = iota

// withAccessToken pins the token a request goes out with, so the caller
// knows exactly which credential a 401 refers to.
func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func accessTokenFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accessTokenKey).(string)
	return v, ok
}

// bearerTransport sets "Authorization: Bearer <token>" when a credential is
// present. The token pinned on the context wins; otherwise the store is read.
type bearerTransport struct {
	base  http.RoundTripper
	store credentials.Store
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	token, ok := accessTokenFrom(r.Context())
	if !ok {
		if c, _, err := t.store.Load(r.Context()); err == nil {
			token = c.AccessToken
		}
	}
	if token == "" {
		return t.base.RoundTrip(r)
	}

	clone := r.Clone(r.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}
