package service

import (
	"context"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/domain"
)

// AttendanceGateway is the slice of the API client the attendance actions
// use.
type AttendanceGateway interface {
	CheckIn(ctx context.Context) (*domain.CheckInResult, error)
	CheckOut(ctx context.Context) (*domain.CheckOutResult, error)
	StartBreak(ctx context.Context, kind domain.BreakType) (*domain.BreakStartResult, error)
	EndBreak(ctx context.Context) (*domain.BreakEndResult, error)
	ListMyAttendance(ctx context.Context) ([]domain.AttendanceRecord, error)
}

// AdminGateway is the slice of the API client the admin pages use.
type AdminGateway interface {
	ListEmployees(ctx context.Context) ([]domain.EmployeeRecord, error)
	ListAllAttendance(ctx context.Context) ([]domain.AttendanceRecord, error)
	RegisterEmployee(ctx context.Context, req api.RegisterEmployeeRequest) (*api.RegisterResult, error)
	MarkMeetingAbsence(ctx context.Context, req api.MarkAbsenceRequest) (*domain.MissedMeetingRecord, error)
}

// MeetingGateway lists the caller's own missed meetings.
type MeetingGateway interface {
	ListMyMissedMeetings(ctx context.Context) ([]domain.MissedMeetingRecord, error)
}

// Notifier sends cross-session realtime notifications.
type Notifier interface {
	Emit(ctx context.Context, name string, payload any) error
}

// Identity names the signed-in user.
type Identity interface {
	CurrentUser() (domain.Session, bool)
}

var _ AttendanceGateway = (*api.Client)(nil)
var _ AdminGateway = (*api.Client)(nil)
var _ MeetingGateway = (*api.Client)(nil)
