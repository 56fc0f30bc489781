package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session_values (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

var issued = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestPutThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, issued, map[string]string{"access_token": "eyJhbGciOi"}))

	v, ok, err := r.Get(ctx, "access_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Value{Key: "access_token", Data: "eyJhbGciOi", UpdatedAt: issued}, v)
}

func TestGet_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestPut_OverwritesValueAndTimestamp(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, issued, map[string]string{"k": "old"}))
	later := issued.Add(time.Hour)
	require.NoError(t, r.Put(ctx, later, map[string]string{"k": "new"}))

	v, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", v.Data)
	assert.Equal(t, later, v.UpdatedAt)
}

func TestDelete_SeveralKeysAndIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, issued, map[string]string{"a": "1", "b": "2", "c": "3"}))
	require.NoError(t, r.Delete(ctx, "a", "b"))
	require.NoError(t, r.Delete(ctx, "a"))
	require.NoError(t, r.Delete(ctx))

	for key, want := range map[string]bool{"a": false, "b": false, "c": true} {
		_, ok, err := r.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, ok, key)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, `failed to get session value "k"`)

	err = r.Put(ctx, issued, map[string]string{"k": "v"})
	require.ErrorContains(t, err, `failed to put session value "k"`)

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete session values [k]")
}

func TestPut_InsideTransactionRollsBack(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).Put(ctx, issued, map[string]string{"a": "1"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, ok, err := NewSQLiteRepository(db).Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "rolled back write must not be visible")
}
