// Package common defines helpers and sentinel errors shared by the client
// and the test backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	ErrorNotFound = errors.New("not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
