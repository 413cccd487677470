package service

import (
	"context"
	"strings"
	"time"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/domain"
)

// AdminOverview is everything the admin dashboard shows.
type AdminOverview struct {
	Employees []domain.EmployeeRecord
	Records   []domain.AttendanceRecord
	Today     []domain.AttendanceRecord
	Stats     domain.DashboardStats
}

// AdminService backs the admin pages.
type AdminService struct {
	gateway       AdminGateway
	notifier      Notifier
	identity      Identity
	clock         domain.Clock
	observer      UseCaseObserver
	notifyTimeout time.Duration
}

func NewAdminService(
	gateway AdminGateway,
	notifier Notifier,
	identity Identity,
	clock domain.Clock,
	observers ...UseCaseObserver,
) *AdminService {
	return &AdminService{
		gateway:       gateway,
		notifier:      notifier,
		identity:      identity,
		clock:         clock,
		observer:      useCaseObserverOrNoop(observers),
		notifyTimeout: defaultNotifyTimeout,
	}
}

func (s *AdminService) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		s.notifyTimeout = d
	}
}

// Overview fetches employees and attendance and computes today's stats.
func (s *AdminService) Overview(ctx context.Context) (AdminOverview, error) {
	employees, err := s.gateway.ListEmployees(ctx)
	if err != nil {
		return AdminOverview{}, err
	}
	records, err := s.gateway.ListAllAttendance(ctx)
	if err != nil {
		return AdminOverview{}, err
	}
	return AdminOverview{
		Employees: employees,
		Records:   records,
		Today:     s.clock.TodayRecords(records),
		Stats:     domain.ComputeDashboardStats(len(employees), records, s.clock),
	}, nil
}

func (s *AdminService) Employees(ctx context.Context, search string) ([]domain.EmployeeRecord, error) {
	list, err := s.gateway.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterEmployees(list, search), nil
}

// Attendance lists every record matching f.
func (s *AdminService) Attendance(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	records, err := s.gateway.ListAllAttendance(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterAttendance(records, f, s.clock), nil
}

// NextEmployeeID previews the id the server will assign on registration.
func (s *AdminService) NextEmployeeID(ctx context.Context) (string, error) {
	list, err := s.gateway.ListEmployees(ctx)
	if err != nil {
		return "", err
	}
	return domain.NextEmployeeID(len(list)), nil
}

func (s *AdminService) Register(ctx context.Context, req api.RegisterEmployeeRequest) (res *api.RegisterResult, err error) {
	fields := map[string]any{"email": strings.TrimSpace(req.Email)}
	defer observe(ctx, s.observer, "register-employee", fields, &err)()

	res, err = s.gateway.RegisterEmployee(ctx, req)
	if err != nil {
		return nil, err
	}
	fields["employee_id"] = res.EmployeeID
	return res, nil
}

// MarkAbsence records a missed meeting and emits a meeting-update naming
// the absent employee.
func (s *AdminService) MarkAbsence(ctx context.Context, employeeID, date string) (rec *domain.MissedMeetingRecord, out Outcome, err error) {
	if date == "" {
		date = s.clock.Today()
	}
	fields := map[string]any{"employee_id": employeeID, "date": date}
	defer observe(ctx, s.observer, "mark-absence", fields, &err)()

	rec, err = s.gateway.MarkMeetingAbsence(ctx, api.MarkAbsenceRequest{EmployeeID: employeeID, Date: date})
	if err != nil {
		return nil, out, err
	}
	out = Outcome{Message: "Meeting absence recorded", At: rec.MarkedAt}
	out.NotifyErr = emitUpdate(ctx, s.notifier, s.identity, s.clock, s.notifyTimeout,
		domain.EventMeetingUpdate, domain.UpdateMeetingAbsence, domain.CoalesceStr(rec.EmployeeID, employeeID))
	fields["notified"] = out.NotifyErr == nil
	return rec, out, nil
}

// MeetingService lists the caller's missed meetings.
type MeetingService struct {
	gateway MeetingGateway
}

func NewMeetingService(gateway MeetingGateway) *MeetingService {
	return &MeetingService{gateway: gateway}
}

func (s *MeetingService) Missed(ctx context.Context) ([]domain.MissedMeetingRecord, error) {
	return s.gateway.ListMyMissedMeetings(ctx)
}
