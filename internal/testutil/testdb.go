package testutil

import (
	"database/sql"
	"testing"

	"github.com/ikkahin/hra/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens a migrated in-memory session store that lives for the
// duration of t.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "open session store")
	t.Cleanup(func() { _ = database.Close() })
	return database
}
