package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkahin/hra/internal/domain"
)

// ErrNoChannel is reported in Outcome.NotifyErr when no realtime channel
// is wired.
var ErrNoChannel = errors.New("no realtime channel")

const defaultNotifyTimeout = 3 * time.Second

// Outcome describes a state change the server accepted.
type Outcome struct {
	Message        string
	At             *time.Time
	WorkingHours   string
	AllowedMinutes int
	// NotifyErr is set when the change succeeded but other sessions could
	// not be told about it.
	NotifyErr error
}

// EmployeeDay is an employee's history plus today's derived status.
type EmployeeDay struct {
	Records []domain.AttendanceRecord
	Today   *domain.AttendanceRecord
	Status  domain.DayStatus
}

// AttendanceService runs the employee's own attendance actions. Each
// successful action emits an attendance-update so other sessions refetch.
type AttendanceService struct {
	gateway       AttendanceGateway
	notifier      Notifier
	identity      Identity
	clock         domain.Clock
	observer      UseCaseObserver
	notifyTimeout time.Duration
}

func NewAttendanceService(
	gateway AttendanceGateway,
	notifier Notifier,
	identity Identity,
	clock domain.Clock,
	observers ...UseCaseObserver,
) *AttendanceService {
	return &AttendanceService{
		gateway:       gateway,
		notifier:      notifier,
		identity:      identity,
		clock:         clock,
		observer:      useCaseObserverOrNoop(observers),
		notifyTimeout: defaultNotifyTimeout,
	}
}

// SetNotifyTimeout bounds how long an action waits for the realtime
// channel before giving up on the notification.
func (s *AttendanceService) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		s.notifyTimeout = d
	}
}

func (s *AttendanceService) CheckIn(ctx context.Context) (out Outcome, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "check-in", fields, &err)()

	res, err := s.gateway.CheckIn(ctx)
	if err != nil {
		return out, err
	}
	out = Outcome{Message: domain.CoalesceStr(res.Message, "Checked in"), At: res.CheckInTime}
	out.NotifyErr = s.notify(ctx, domain.UpdateCheckIn, fields)
	return out, nil
}

func (s *AttendanceService) CheckOut(ctx context.Context) (out Outcome, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "check-out", fields, &err)()

	res, err := s.gateway.CheckOut(ctx)
	if err != nil {
		return out, err
	}
	out = Outcome{
		Message:      domain.CoalesceStr(res.Message, "Checked out"),
		At:           res.CheckOutTime,
		WorkingHours: res.WorkingHours,
	}
	out.NotifyErr = s.notify(ctx, domain.UpdateCheckOut, fields)
	return out, nil
}

func (s *AttendanceService) StartBreak(ctx context.Context, kind domain.BreakType) (out Outcome, err error) {
	fields := map[string]any{"break_type": string(kind)}
	defer observe(ctx, s.observer, "break-start", fields, &err)()

	res, err := s.gateway.StartBreak(ctx, kind)
	if err != nil {
		return out, err
	}
	out = Outcome{
		Message:        domain.CoalesceStr(res.Message, kind.Title()+" break started"),
		At:             res.StartTime,
		AllowedMinutes: res.AllowedDurationMinutes,
	}
	out.NotifyErr = s.notify(ctx, domain.UpdateBreakStart, fields)
	return out, nil
}

func (s *AttendanceService) EndBreak(ctx context.Context) (out Outcome, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "break-end", fields, &err)()

	res, err := s.gateway.EndBreak(ctx)
	if err != nil {
		return out, err
	}
	out = Outcome{Message: domain.CoalesceStr(res.Message, "Break ended"), At: res.EndTime}
	out.NotifyErr = s.notify(ctx, domain.UpdateBreakEnd, fields)
	return out, nil
}

// Today fetches the caller's history and derives today's status.
func (s *AttendanceService) Today(ctx context.Context) (EmployeeDay, error) {
	records, err := s.gateway.ListMyAttendance(ctx)
	if err != nil {
		return EmployeeDay{}, err
	}
	today := s.clock.FindToday(records)
	return EmployeeDay{Records: records, Today: today, Status: domain.DeriveStatus(today)}, nil
}

func (s *AttendanceService) notify(ctx context.Context, kind string, fields map[string]any) error {
	err := emitUpdate(ctx, s.notifier, s.identity, s.clock, s.notifyTimeout, domain.EventAttendanceUpdate, kind, "")
	fields["notified"] = err == nil
	return err
}

// emitUpdate sends one AttendanceUpdate. userID defaults to the signed-in
// employee.
func emitUpdate(ctx context.Context, n Notifier, id Identity, clock domain.Clock, timeout time.Duration, event, kind, userID string) error {
	if n == nil {
		return ErrNoChannel
	}
	if userID == "" && id != nil {
		if sess, ok := id.CurrentUser(); ok {
			userID = sess.EmployeeID
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return n.Emit(ctx, event, domain.AttendanceUpdate{Type: kind, UserID: userID, Timestamp: clock.Now().UTC()})
}
