package mockserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkahin/hra/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	errAlreadyCheckedIn = errors.New("Already checked in today")
	errNotCheckedIn     = errors.New("You have not checked in today")
	errAlreadyOut       = errors.New("Already checked out today")
	errOnBreak          = errors.New("End your break before checking out")
	errBreakOpen        = errors.New("A break is already in progress")
	errNoOpenBreak      = errors.New("No break in progress")
	errDuplicateEmail   = errors.New("An employee with this email already exists")
	errUnknownEmployee  = errors.New("Employee not found")
	errAlreadyMarked    = errors.New("Absence already marked for this date")
)

// allowedBreakMinutes is the policy reported on break start.
var allowedBreakMinutes = map[domain.BreakType]int{
	domain.BreakTea:   15,
	domain.BreakLunch: 45,
}

type account struct {
	EmployeeID string
	Name       string
	Email      string
	Phone      string
	Role       domain.Role
	Hash       []byte
	CreatedAt  time.Time
}

type breakRow struct {
	Type  domain.BreakType
	Start time.Time
	End   *time.Time
}

type attendanceRow struct {
	ID         string
	EmployeeID string
	Date       string
	CheckIn    *time.Time
	CheckOut   *time.Time
	Breaks     []breakRow
}

type missedRow struct {
	ID         string
	EmployeeID string
	Date       string
	MarkedAt   time.Time
}

// store is the in-memory backing data of the mock backend.
type store struct {
	clock domain.Clock

	mu         sync.Mutex
	accounts   map[string]*account
	attendance map[string]*attendanceRow
	missed     []missedRow
}

// Seed accounts available on every mock server.
var seedAccounts = []struct {
	ID, Name, Email, Phone, Password string
	Role                             domain.Role
}{
	{"ADMIN001", "Admin", "admin@hra.test", "9000000001", "admin123", domain.RoleAdmin},
	{"EMP001", "Asha Rao", "asha@hra.test", "9000000002", "emp123", domain.RoleEmployee},
	{"EMP002", "Vikram Nair", "vikram@hra.test", "9000000003", "emp456", domain.RoleEmployee},
}

func newStore(clock domain.Clock) *store {
	s := &store{
		clock:      clock,
		accounts:   make(map[string]*account),
		attendance: make(map[string]*attendanceRow),
	}
	for _, a := range seedAccounts {
		hash, _ := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.MinCost)
		s.accounts[a.ID] = &account{
			EmployeeID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone,
			Role: a.Role, Hash: hash, CreatedAt: clock.Now(),
		}
	}
	return s
}

func (s *store) authenticate(id, password string) (*account, bool) {
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToUpper(strings.TrimSpace(id))]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)) != nil {
		return nil, false
	}
	return acct, true
}

func (s *store) register(name, email, phone, password string) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return nil, errDuplicateEmail
		}
	}
	n := 0
	for _, a := range s.accounts {
		if a.Role == domain.RoleEmployee {
			n++
		}
	}
	id := domain.NextEmployeeID(n)
	for s.accounts[id] != nil {
		n++
		id = domain.NextEmployeeID(n)
	}
	acct := &account{
		EmployeeID: id, Name: name, Email: email, Phone: phone,
		Role: domain.RoleEmployee, Hash: hash, CreatedAt: s.clock.Now(),
	}
	s.accounts[id] = acct
	return acct, nil
}

func (s *store) employees() []account {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account
	for _, a := range s.accounts {
		if a.Role == domain.RoleEmployee {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

func (s *store) name(id string) string {
	if a := s.accounts[id]; a != nil {
		return a.Name
	}
	return ""
}

func rowKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// today returns the employee's row for today, creating it when create is set.
func (s *store) today(employeeID string, create bool) *attendanceRow {
	date := s.clock.Today()
	key := rowKey(employeeID, date)
	row := s.attendance[key]
	if row == nil && create {
		row = &attendanceRow{ID: uuid.NewString(), EmployeeID: employeeID, Date: date}
		s.attendance[key] = row
	}
	return row
}

func (s *store) checkIn(employeeID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.today(employeeID, true)
	if row.CheckIn != nil {
		return time.Time{}, errAlreadyCheckedIn
	}
	now := s.clock.Now().UTC()
	row.CheckIn = &now
	return now, nil
}

func (s *store) checkOut(employeeID string) (time.Time, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.today(employeeID, false)
	switch {
	case row == nil || row.CheckIn == nil:
		return time.Time{}, "", errNotCheckedIn
	case row.CheckOut != nil:
		return time.Time{}, "", errAlreadyOut
	case openBreak(row) != nil:
		return time.Time{}, "", errOnBreak
	}
	now := s.clock.Now().UTC()
	row.CheckOut = &now
	return now, domain.FormatSpan(now.Sub(*row.CheckIn) - breakTime(row)), nil
}

func (s *store) startBreak(employeeID string, kind domain.BreakType) (time.Time, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.today(employeeID, false)
	switch {
	case row == nil || row.CheckIn == nil:
		return time.Time{}, 0, errNotCheckedIn
	case row.CheckOut != nil:
		return time.Time{}, 0, errAlreadyOut
	case openBreak(row) != nil:
		return time.Time{}, 0, errBreakOpen
	}
	now := s.clock.Now().UTC()
	row.Breaks = append(row.Breaks, breakRow{Type: kind, Start: now})
	return now, allowedBreakMinutes[kind], nil
}

func (s *store) endBreak(employeeID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.today(employeeID, false)
	if row == nil {
		return time.Time{}, errNoOpenBreak
	}
	b := openBreak(row)
	if b == nil {
		return time.Time{}, errNoOpenBreak
	}
	now := s.clock.Now().UTC()
	b.End = &now
	return now, nil
}

func openBreak(row *attendanceRow) *breakRow {
	for i := range row.Breaks {
		if row.Breaks[i].End == nil {
			return &row.Breaks[i]
		}
	}
	return nil
}

func breakTime(row *attendanceRow) time.Duration {
	var d time.Duration
	for _, b := range row.Breaks {
		if b.End != nil {
			d += b.End.Sub(b.Start)
		}
	}
	return d
}

// records returns attendance rows for employeeID, or for everyone when it
// is empty, newest first.
func (s *store) records(employeeID string) []attendanceJSON {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendanceJSON
	for _, row := range s.attendance {
		if employeeID != "" && row.EmployeeID != employeeID {
			continue
		}
		out = append(out, s.toJSON(row))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (s *store) markMissed(employeeID, date string) (missedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accounts[employeeID]; a == nil {
		return missedRow{}, errUnknownEmployee
	}
	for _, m := range s.missed {
		if m.EmployeeID == employeeID && m.Date == date {
			return missedRow{}, errAlreadyMarked
		}
	}
	row := missedRow{ID: uuid.NewString(), EmployeeID: employeeID, Date: date, MarkedAt: s.clock.Now().UTC()}
	s.missed = append(s.missed, row)
	return row, nil
}

func (s *store) missedFor(employeeID string) []missedJSON {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []missedJSON
	for i := len(s.missed) - 1; i >= 0; i-- {
		m := s.missed[i]
		if m.EmployeeID != employeeID {
			continue
		}
		out = append(out, missedJSON{
			ID: m.ID, EmployeeID: m.EmployeeID, EmployeeName: s.name(m.EmployeeID),
			MeetingDate: m.Date, MarkedAt: m.MarkedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}

type breakJSON struct {
	BreakType string  `json:"breakType"`
	StartTime string  `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

type attendanceJSON struct {
	ID           string      `json:"_id"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName"`
	Date         string      `json:"date"`
	CheckInTime  *string     `json:"checkInTime"`
	CheckOutTime *string     `json:"checkOutTime"`
	Breaks       []breakJSON `json:"breaks"`
	WorkingHours string      `json:"workingHours,omitempty"`
}

type missedJSON struct {
	ID           string `json:"_id"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	MeetingDate  string `json:"meetingDate"`
	MarkedAt     string `json:"markedAt"`
}

func timeStr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func (s *store) toJSON(row *attendanceRow) attendanceJSON {
	out := attendanceJSON{
		ID:           row.ID,
		EmployeeID:   row.EmployeeID,
		EmployeeName: s.name(row.EmployeeID),
		Date:         row.Date,
		CheckInTime:  timeStr(row.CheckIn),
		CheckOutTime: timeStr(row.CheckOut),
		Breaks:       make([]breakJSON, 0, len(row.Breaks)),
	}
	for _, b := range row.Breaks {
		out.Breaks = append(out.Breaks, breakJSON{
			BreakType: b.Type.Wire(),
			StartTime: b.Start.UTC().Format(time.RFC3339Nano),
			EndTime:   timeStr(b.End),
		})
	}
	if row.CheckIn != nil && row.CheckOut != nil {
		out.WorkingHours = domain.FormatSpan(row.CheckOut.Sub(*row.CheckIn) - breakTime(row))
	}
	return out
}
