package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/google/uuid"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// refresh runs on behalf of every request waiting at the gate. It is detached
// from the owner's cancellation so one caller giving up does not fail the
// others; the client timeout still bounds it.
func (c *Client) refresh(parent context.Context, stale string) refreshResult {
	ctx := context.WithoutCancel(parent)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cred, gen, err := c.store.Load(ctx)
	if err != nil {
		return refreshResult{err: err}
	}
	switch {
	case cred.Empty():
		// logged out while the request was in flight
		return refreshResult{err: &AuthExpiredError{Cause: ErrSessionChanged}}
	case cred.AccessToken != stale:
		// an earlier refresh already replaced the token
		return refreshResult{token: cred.AccessToken}
	case cred.RefreshToken == "":
		return c.fail(ctx, gen, ErrNoRefreshToken)
	}

	next, err := c.callRefresh(ctx, cred.RefreshToken)
	if err != nil {
		return c.fail(ctx, gen, err)
	}

	ok, err := c.store.Rotate(ctx, gen, next)
	if err != nil {
		return refreshResult{err: err}
	}
	if !ok {
		c.metrics.incRefresh(RefreshDiscarded)
		c.log.Info(ctx, "discarded refresh result, session changed meanwhile")
		return refreshResult{err: &AuthExpiredError{Cause: ErrSessionChanged}}
	}

	c.metrics.incRefresh(RefreshSuccess)
	c.log.Info(ctx, "access token refreshed", "rotated", next.RefreshToken != "")
	return refreshResult{token: next.AccessToken}
}

func (c *Client) fail(ctx context.Context, gen uint64, cause error) refreshResult {
	c.metrics.incRefresh(RefreshFailure)
	c.log.Warn(ctx, "token refresh failed", "error", cause)

	cleared, err := c.store.ClearIf(ctx, gen)
	if err != nil {
		c.log.Error(ctx, "clear credential", "error", err)
	}
	if cleared && c.session != nil {
		c.session.Expire()
	}
	return refreshResult{err: &AuthExpiredError{Cause: cause}}
}

func (c *Client) callRefresh(ctx context.Context, refreshToken string) (credentials.Credential, error) {
	req, err := NewJSONRequest(http.MethodPost, c.refreshPath, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return credentials.Credential{}, err
	}

	resp, err := c.send(ctx, c.raw, req, "", uuid.NewString())
	if err != nil {
		return credentials.Credential{}, err
	}
	if resp.StatusCode >= 500 {
		return credentials.Credential{}, &ServerError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return credentials.Credential{}, &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	var rr refreshResponse
	if err := json.Unmarshal(resp.Body, &rr); err != nil {
		return credentials.Credential{}, err
	}
	if rr.AccessToken == "" {
		return credentials.Credential{}, ErrEmptyAccessToken
	}
	return credentials.Credential{AccessToken: rr.AccessToken, RefreshToken: rr.RefreshToken}, nil
}
