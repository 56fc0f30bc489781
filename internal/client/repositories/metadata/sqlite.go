package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (Value, bool, error) {
	var (
		data string
		ts   int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM session_values WHERE key = ?`, key).Scan(&data, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, fmt.Errorf("failed to get session value %q: %w", key, err)
	}
	return Value{Key: key, Data: data, UpdatedAt: time.Unix(ts, 0).UTC()}, true, nil
}

// Put upserts every pair with the same timestamp. Wrap it in dbx.WithTx when
// the pairs must land together.
func (r *SQLiteRepository) Put(ctx context.Context, at time.Time, values map[string]string) error {
	for k, v := range values {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO session_values (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, v, at.Unix())
		if err != nil {
			return fmt.Errorf("failed to put session value %q: %w", k, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `DELETE FROM session_values WHERE key IN (?` + strings.Repeat(", ?", len(keys)-1) + `)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to delete session values %v: %w", keys, err)
	}
	return nil
}
