package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkahin/hra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func readKey(t *testing.T, uow *db.SQLiteUnitOfWork, key string) (string, bool) {
	t.Helper()
	var val string
	var found bool
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&val); err != nil {
			return nil
		}
		found = true
		return nil
	})
	require.NoError(t, err)
	return val, found
}

func putBoth(ctx context.Context, tx db.DBTX) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES ('hra_user', '{}')`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES ('hra_token', 'tok')`)
	return err
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openUoW(t)

	require.NoError(t, uow.WithinTx(context.Background(), putBoth))

	val, found := readKey(t, uow, "hra_token")
	assert.True(t, found)
	assert.Equal(t, "tok", val)
	_, found = readKey(t, uow, "hra_user")
	assert.True(t, found)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openUoW(t)
	boom := errors.New("write refused")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putBoth(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, found := readKey(t, uow, "hra_user")
	assert.False(t, found, "no entry should survive a rolled back pair write")
	_, found = readKey(t, uow, "hra_token")
	assert.False(t, found)
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putBoth(ctx, tx)
			panic("boom")
		})
	})

	_, found := readKey(t, uow, "hra_token")
	assert.False(t, found)
}
