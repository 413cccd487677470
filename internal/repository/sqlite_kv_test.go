package repository

import (
	"context"
	"testing"

	"github.com/ikkahin/hra/internal/db"
	"github.com/ikkahin/hra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepo_PutGet(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "hra_token", "abc"))
	got, err := repo.Get(ctx, "hra_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	ts, err := repo.UpdatedAt(ctx, "hra_token")
	require.NoError(t, err)
	assert.NotNil(t, ts)
}

func TestKVRepo_PutOverwrites(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "hra_token", "old"))
	require.NoError(t, repo.Put(ctx, "hra_token", "new"))

	got, err := repo.Get(ctx, "hra_token")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestKVRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), "hra_user")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdatedAt(context.Background(), "hra_user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVRepo_DeleteMany(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "hra_user", "{}"))
	require.NoError(t, repo.Put(ctx, "hra_token", "abc"))
	require.NoError(t, repo.Put(ctx, "other", "keep"))

	require.NoError(t, repo.Delete(ctx, "hra_user", "hra_token", "missing"))
	require.NoError(t, repo.Delete(ctx))

	_, err := repo.Get(ctx, "hra_user")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "hra_token")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := repo.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "keep", got)
}

func TestKVRepo_WithinTxRollback(t *testing.T) {
	database := testutil.NewTestDB(t)
	uow := db.NewSQLiteUnitOfWork(database)
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := NewSQLiteKVRepo(tx)
		if err := repo.Put(ctx, "hra_user", "{}"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = NewSQLiteKVRepo(database).Get(ctx, "hra_user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
