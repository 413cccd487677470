package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkahin/hra/internal/db"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/repository"
)

// Durable entry keys. The names match what earlier clients wrote so an
// existing session survives an upgrade.
const (
	KeyUser  = "hra_user"
	KeyToken = "hra_token"
)

// ErrCorrupted is returned by Load when the stored record cannot be used.
// The entries have already been removed when it is returned.
var ErrCorrupted = errors.New("stored session corrupted")

// Store persists the session record and the bare token as a pair. Both are
// written and cleared in one transaction.
type Store struct {
	conn   db.DBTX
	uow    db.UnitOfWork
	events repository.SessionEventRepo
}

func NewStore(database *sql.DB) *Store {
	return NewStoreWithUoW(database, db.NewSQLiteUnitOfWork(database))
}

// NewStoreWithUoW lets tests inject a failing unit of work.
func NewStoreWithUoW(conn db.DBTX, uow db.UnitOfWork) *Store {
	return &Store{
		conn:   conn,
		uow:    uow,
		events: repository.NewSQLiteSessionEventRepo(conn),
	}
}

// Load returns the persisted session. A missing entry yields (zero, false,
// nil). An unusable entry is deleted and reported as ErrCorrupted so the
// caller can log it; callers treat it the same as no session.
func (s *Store) Load(ctx context.Context) (domain.Session, bool, error) {
	kv := repository.NewSQLiteKVRepo(s.conn)
	raw, err := kv.Get(ctx, KeyUser)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}

	sess, perr := parseRecord(raw)
	if perr == nil {
		if tok, terr := kv.Get(ctx, KeyToken); terr == nil && tok != "" {
			sess.Token = tok
		}
		if sess.Valid() {
			return sess, true, nil
		}
		perr = errors.New("incomplete session record")
	}

	if err := s.Clear(ctx); err != nil {
		return domain.Session{}, false, err
	}
	corrupt := fmt.Errorf("%w: %v", ErrCorrupted, perr)
	if err := s.record(ctx, "", "corrupted", perr.Error()); err != nil {
		return domain.Session{}, false, errors.Join(corrupt, err)
	}
	return domain.Session{}, false, corrupt
}

func parseRecord(raw string) (domain.Session, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "undefined" || trimmed == "null" {
		return domain.Session{}, fmt.Errorf("placeholder value %q", trimmed)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(trimmed), &sess); err != nil {
		return domain.Session{}, fmt.Errorf("decoding session record: %w", err)
	}
	role, err := domain.ParseRole(string(sess.Role))
	if err != nil {
		return domain.Session{}, err
	}
	sess.Role = role
	return sess, nil
}

// Save writes both entries or neither.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		kv := repository.NewSQLiteKVRepo(tx)
		if err := kv.Put(ctx, KeyUser, string(raw)); err != nil {
			return err
		}
		return kv.Put(ctx, KeyToken, sess.Token)
	})
}

// Clear removes both entries. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteKVRepo(tx).Delete(ctx, KeyUser, KeyToken)
	})
}

// Token reads the bare token entry, returning "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	tok, err := repository.NewSQLiteKVRepo(s.conn).Get(ctx, KeyToken)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// History returns recent session transitions, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]repository.SessionEvent, error) {
	return s.events.ListRecent(ctx, limit)
}

func (s *Store) record(ctx context.Context, employeeID, kind, detail string) error {
	err := s.events.Record(ctx, &repository.SessionEvent{EmployeeID: employeeID, Kind: kind, Detail: detail})
	if err != nil {
		return fmt.Errorf("recording %s event: %w", kind, err)
	}
	return nil
}
