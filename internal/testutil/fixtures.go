package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ikkahin/hra/internal/domain"
)

var testEmployeeCounter atomic.Int64

// Record options
type RecordOption func(*domain.AttendanceRecord)

func WithEmployeeName(name string) RecordOption {
	return func(r *domain.AttendanceRecord) {
		r.EmployeeName = name
	}
}

func WithDate(d time.Time) RecordOption {
	return func(r *domain.AttendanceRecord) {
		r.Date = &d
	}
}

func WithCheckIn(t time.Time) RecordOption {
	return func(r *domain.AttendanceRecord) {
		r.CheckInTime = &t
	}
}

func WithCheckOut(t time.Time) RecordOption {
	return func(r *domain.AttendanceRecord) {
		r.CheckOutTime = &t
	}
}

// WithBreak appends a break; a zero end leaves it open.
func WithBreak(kind domain.BreakType, start, end time.Time) RecordOption {
	return func(r *domain.AttendanceRecord) {
		b := domain.BreakEntry{Type: kind, StartTime: start}
		if !end.IsZero() {
			b.EndTime = &end
		}
		r.Breaks = append(r.Breaks, b)
	}
}

func WithWorkingHours(h string) RecordOption {
	return func(r *domain.AttendanceRecord) {
		r.WorkingHours = h
	}
}

func NewTestRecord(employeeID string, opts ...RecordOption) domain.AttendanceRecord {
	r := domain.AttendanceRecord{
		ID:           uuid.New().String(),
		EmployeeID:   employeeID,
		EmployeeName: "Employee " + employeeID,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// NewTestEmployee returns an employee with a fresh EMPnnn id when id is
// empty.
func NewTestEmployee(id, name string) domain.EmployeeRecord {
	if id == "" {
		id = fmt.Sprintf("EMP%03d", 100+testEmployeeCounter.Add(1))
	}
	created := time.Now().UTC()
	return domain.EmployeeRecord{
		EmployeeID: id,
		Name:       name,
		Email:      fmt.Sprintf("%s@hra.test", id),
		Phone:      "9000000000",
		Role:       string(domain.RoleEmployee),
		CreatedAt:  &created,
	}
}

func NewTestSession(id string, role domain.Role) domain.Session {
	return domain.Session{EmployeeID: id, Role: role, Token: "token-" + id}
}
