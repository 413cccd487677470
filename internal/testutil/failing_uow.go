package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ikkahin/hra/internal/db"
)

// WriteFaultUoW runs each unit of work in a real transaction but fails the
// FailOn-th write (counting from 1 across the UoW's lifetime) with Err.
// Reads are never failed.
type WriteFaultUoW struct {
	DB     *sql.DB
	FailOn int
	Err    error

	mu     sync.Mutex
	writes []string
}

func (u *WriteFaultUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(ctx, &faultyTx{DBTX: tx, uow: u}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Writes returns the statements attempted so far, including the one that
// was failed.
func (u *WriteFaultUoW) Writes() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.writes...)
}

type faultyTx struct {
	db.DBTX
	uow *WriteFaultUoW
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.uow.mu.Lock()
	f.uow.writes = append(f.uow.writes, query)
	n := len(f.uow.writes)
	f.uow.mu.Unlock()
	if n == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
