package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ikkahin/hra/internal/db"
)

const maxSessionEvents = 200

// SQLiteSessionEventRepo implements SessionEventRepo. The table is trimmed
// to the newest maxSessionEvents rows on every insert.
type SQLiteSessionEventRepo struct {
	db db.DBTX
}

func NewSQLiteSessionEventRepo(conn db.DBTX) *SQLiteSessionEventRepo {
	return &SQLiteSessionEventRepo{db: conn}
}

func (r *SQLiteSessionEventRepo) Record(ctx context.Context, e *SessionEvent) error {
	createdAt := nowUTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_events (employee_id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		e.EmployeeID, e.Kind, e.Detail, createdAt)
	if err != nil {
		return fmt.Errorf("inserting session event: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	if t := parseNullableTime(sql.NullString{String: createdAt, Valid: true}); t != nil {
		e.CreatedAt = *t
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM session_events WHERE id NOT IN (
		SELECT id FROM session_events ORDER BY id DESC LIMIT ?)`, maxSessionEvents)
	if err != nil {
		return fmt.Errorf("trimming session events: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (r *SQLiteSessionEventRepo) ListRecent(ctx context.Context, limit int) ([]SessionEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, employee_id, kind, detail, created_at
		FROM session_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing session events: %w", err)
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var created sql.NullString
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Kind, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		if t := parseNullableTime(created); t != nil {
			e.CreatedAt = *t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
