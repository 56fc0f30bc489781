// Package metadata keeps the few values the client must remember between
// runs (the access token and when it was issued) in the session_values
// table.
package metadata

import (
	"context"
	"time"
)

// Value is one stored row.
type Value struct {
	Key       string
	Data      string
	UpdatedAt time.Time
}

// Repository reads and writes session values. Get reports ok=false for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) (v Value, ok bool, err error)
	Put(ctx context.Context, at time.Time, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
