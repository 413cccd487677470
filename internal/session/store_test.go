package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveIsAtomic(t *testing.T) {
	database := testutil.NewTestDB(t)
	injected := errors.New("disk full")
	uow := &testutil.WriteFaultUoW{DB: database, FailOn: 2, Err: injected}
	store := NewStoreWithUoW(database, uow)
	ctx := context.Background()

	err := store.Save(ctx, domain.Session{EmployeeID: "EMP001", Role: domain.RoleEmployee, Token: "t"})
	require.ErrorIs(t, err, injected)
	assert.Len(t, uow.Writes(), 2)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a failed second write must not leave a half session")
	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestStore_LoadReportsCorruption(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database)
	ctx := context.Background()
	_, err := database.Exec(`INSERT INTO kv_store (key, value) VALUES (?, 'undefined')`, KeyUser)
	require.NoError(t, err)

	_, ok, err := store.Load(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorrupted)

	history, err := store.History(ctx, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "corrupted", history[0].Kind)

	_, ok, err = store.Load(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadSurfacesAuditFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database)
	ctx := context.Background()
	_, err := database.Exec(`INSERT INTO kv_store (key, value) VALUES (?, 'null')`, KeyUser)
	require.NoError(t, err)
	_, err = database.Exec(`DROP TABLE session_events`)
	require.NoError(t, err)

	_, ok, err := store.Load(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.Contains(t, err.Error(), "recording corrupted event")
}

func TestStore_TokenEntryWins(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Session{EmployeeID: "EMP001", Role: domain.RoleEmployee, Token: "old"}))
	_, err := database.Exec(`UPDATE kv_store SET value = 'rotated' WHERE key = ?`, KeyToken)
	require.NoError(t, err)

	sess, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rotated", sess.Token)
}
