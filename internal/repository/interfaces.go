package repository

import (
	"context"
	"time"
)

// KVRepo is a durable string-keyed store.
type KVRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	UpdatedAt(ctx context.Context, key string) (*time.Time, error)
}

// SessionEvent records one session transition for `hra whoami --history`.
type SessionEvent struct {
	ID         int64
	EmployeeID string
	Kind       string
	Detail     string
	CreatedAt  time.Time
}

type SessionEventRepo interface {
	Record(ctx context.Context, e *SessionEvent) error
	ListRecent(ctx context.Context, limit int) ([]SessionEvent, error)
}
