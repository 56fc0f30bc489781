package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable matches a *NetworkError: no response was received.
	ErrUnavailable = errors.New("server unavailable")
	// ErrAuthExpired matches an *AuthExpiredError: the session is over.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrServer matches a *ServerError (status >= 500).
	ErrServer = errors.New("server error")

	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrSessionChanged   = errors.New("session changed during refresh")
	ErrEmptyAccessToken = errors.New("refresh returned no access token")
)

// NetworkError means the request never produced a response. The credential
// store is left alone.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string        { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error        { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// HTTPError is a non-2xx response the client did not resolve, including a
// 401 that survived its single retry.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if msg := detail(e.Body); msg != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// ServerError is a response with status >= 500. It is never retried.
type ServerError struct {
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d), please try again later", e.StatusCode)
}
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// AuthExpiredError means the access token was rejected and could not be
// renewed. Cause records why the refresh failed. It is not unwrapped:
// errors.As never finds the refresh call's own *HTTPError or *NetworkError.
type AuthExpiredError struct {
	Cause error
}

func (e *AuthExpiredError) Error() string {
	if e.Cause == nil {
		return ErrAuthExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAuthExpired, e.Cause)
}
func (e *AuthExpiredError) Is(target error) bool { return target == ErrAuthExpired }

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
