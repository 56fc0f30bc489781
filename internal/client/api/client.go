package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/Grupo-Cloud/frontend/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultRefreshPath = "/auth/refresh"
	RequestIDHeader    = "X-Request-ID"
)

// Session receives the terminal "credential could not be renewed" signal.
type Session interface {
	Expire()
}

// Config configures a Client. Store is required.
type Config struct {
	BaseURL     string
	Transport   http.RoundTripper
	Timeout     time.Duration
	Store       credentials.Store
	Session     Session
	Logger      logging.Logger
	Metrics     *Metrics
	RefreshPath string
}

// Client issues authenticated requests and recovers from an expired access
// token with one shared refresh per burst of 401s.
type Client struct {
	baseURL     string
	http        *http.Client
	raw         *http.Client
	store       credentials.Store
	session     Session
	log         logging.Logger
	metrics     *Metrics
	refreshPath string
	timeout     time.Duration
	gate        refreshGate
}

func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: credential store is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute http(s)", cfg.BaseURL)
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	refreshPath := cfg.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Transport: &bearerTransport{base: base, store: cfg.Store}, Timeout: cfg.Timeout},
		raw:         &http.Client{Transport: base, Timeout: cfg.Timeout},
		store:       cfg.Store,
		session:     cfg.Session,
		log:         log,
		metrics:     cfg.Metrics,
		refreshPath: refreshPath,
		timeout:     cfg.Timeout,
	}, nil
}

// Do sends req with the current access token. A 401 on a request that
// carried a token triggers one refresh (shared with any concurrent 401s) and
// exactly one replay; the replay's outcome is final.
//
// Errors: *NetworkError, *HTTPError, *ServerError, *AuthExpiredError, or the
// context's error when ctx ends while waiting for a refresh.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	reqID := uuid.NewString()
	log := c.log.With("request_id", reqID, "method", req.Method, "path", req.Path)

	cred, _, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	token := cred.AccessToken

	retried := false
	for {
		resp, err := c.send(ctx, c.http, req, token, reqID)
		if err != nil {
			log.Debug(ctx, "request failed", "error", err)
			c.metrics.observeRequest(OutcomeNetwork, start)
			return nil, err
		}
		log.Debug(ctx, "response", "status", resp.StatusCode, "retried", retried)

		// a 401 without a credential (bad login, for one) is not an expiry
		if resp.StatusCode != http.StatusUnauthorized || retried || token == "" {
			return c.finish(resp, start)
		}

		retried = true
		token, err = c.renew(ctx, token)
		if err != nil {
			if errors.Is(err, ErrAuthExpired) {
				c.metrics.observeRequest(OutcomeAuthExpired, start)
			}
			return nil, err
		}
		c.metrics.incRetry()
	}
}

func (c *Client) finish(resp *Response, start time.Time) (*Response, error) {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.metrics.observeRequest(OutcomeOK, start)
		return resp, nil
	case resp.StatusCode >= 500:
		c.metrics.observeRequest(OutcomeServerError, start)
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: resp.Body}
	default:
		c.metrics.observeRequest(OutcomeClientError, start)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
}

func (c *Client) send(ctx context.Context, hc *http.Client, req *Request, token, reqID string) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(withAccessToken(ctx, token), req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	httpReq.Header.Set(RequestIDHeader, reqID)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// renew returns a token to replay with. stale is the token the failed
// request carried.
func (c *Client) renew(ctx context.Context, stale string) (string, error) {
	future, started := c.gate.tryBeginRefresh()
	if started {
		go func() {
			c.gate.completeRefresh(c.refresh(ctx, stale))
		}()
	}

	select {
	case res := <-future:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
