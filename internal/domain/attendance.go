package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// BreakEntry is a bounded pause in working status. A nil EndTime means the
// break is still running.
type BreakEntry struct {
	Type      BreakType  `json:"breakType"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

func (b BreakEntry) Ongoing() bool {
	return b.EndTime == nil
}

// Duration returns the break length, or false while it is ongoing.
func (b BreakEntry) Duration() (time.Duration, bool) {
	if b.EndTime == nil {
		return 0, false
	}
	return b.EndTime.Sub(b.StartTime), true
}

type wireBreak struct {
	BreakType *string `json:"breakType"`
	Type      *string `json:"type"`
	StartTime *string `json:"startTime"`
	Start     *string `json:"start"`
	EndTime   *string `json:"endTime"`
	End       *string `json:"end"`
}

func (b *BreakEntry) UnmarshalJSON(data []byte) error {
	var w wireBreak
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind := StrFromPtr(CoalescePtr(w.BreakType, w.Type))
	if kind != "" {
		bt, err := ParseBreakType(kind)
		if err != nil {
			return err
		}
		b.Type = bt
	}
	start, err := ParseWireTime(StrFromPtr(CoalescePtr(w.StartTime, w.Start)))
	if err != nil {
		return fmt.Errorf("break start: %w", err)
	}
	if start != nil {
		b.StartTime = *start
	}
	end, err := ParseWireTime(StrFromPtr(CoalescePtr(w.EndTime, w.End)))
	if err != nil {
		return fmt.Errorf("break end: %w", err)
	}
	b.EndTime = end
	return nil
}

// AttendanceRecord is the server's view of one employee-day. The client
// never computes these values; it only reads and displays them.
type AttendanceRecord struct {
	ID           string       `json:"id"`
	EmployeeID   string       `json:"employeeId"`
	EmployeeName string       `json:"employeeName"`
	Date         *time.Time   `json:"date"`
	CheckInTime  *time.Time   `json:"checkInTime"`
	CheckOutTime *time.Time   `json:"checkOutTime"`
	Breaks       []BreakEntry `json:"breaks"`
	WorkingHours string       `json:"workingHours"`
}

type wireAttendance struct {
	ID           string       `json:"id"`
	MongoID      string       `json:"_id"`
	EmployeeID   string       `json:"employeeId"`
	EmployeeIDSn string       `json:"employee_id"`
	EmployeeName string       `json:"employeeName"`
	Name         string       `json:"name"`
	Date         *string      `json:"date"`
	CheckInTime  *string      `json:"checkInTime"`
	CheckOutTime *string      `json:"checkOutTime"`
	Breaks       []BreakEntry `json:"breaks"`
	WorkingHours any          `json:"workingHours"`
}

func (r *AttendanceRecord) UnmarshalJSON(data []byte) error {
	var w wireAttendance
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var err error
	r.ID = CoalesceStr(w.ID, w.MongoID)
	r.EmployeeID = CoalesceStr(w.EmployeeID, w.EmployeeIDSn)
	r.EmployeeName = CoalesceStr(w.EmployeeName, w.Name)
	if r.Date, err = ParseWireTime(StrFromPtr(w.Date)); err != nil {
		return fmt.Errorf("attendance date: %w", err)
	}
	if r.CheckInTime, err = ParseWireTime(StrFromPtr(w.CheckInTime)); err != nil {
		return fmt.Errorf("check-in time: %w", err)
	}
	if r.CheckOutTime, err = ParseWireTime(StrFromPtr(w.CheckOutTime)); err != nil {
		return fmt.Errorf("check-out time: %w", err)
	}
	r.Breaks = w.Breaks
	switch v := w.WorkingHours.(type) {
	case string:
		r.WorkingHours = v
	case float64:
		r.WorkingHours = fmt.Sprintf("%.2f", v)
	}
	return nil
}

// Absent reports a record with no check-in.
func (r AttendanceRecord) Absent() bool {
	return r.CheckInTime == nil
}

// OpenBreak returns the break still running, if any. The server guarantees
// at most one.
func (r AttendanceRecord) OpenBreak() *BreakEntry {
	for i := range r.Breaks {
		if r.Breaks[i].Ongoing() {
			return &r.Breaks[i]
		}
	}
	return nil
}

// Label is the history badge: Complete, In Progress or Absent.
func (r AttendanceRecord) Label() string {
	switch {
	case r.CheckOutTime != nil:
		return "Complete"
	case r.CheckInTime != nil:
		return "In Progress"
	default:
		return "Absent"
	}
}

// Hours returns the server's working-hours string, falling back to the
// check-in/check-out span formatted as "Hh Mm".
func (r AttendanceRecord) Hours() string {
	if r.WorkingHours != "" {
		return r.WorkingHours
	}
	if r.CheckInTime == nil || r.CheckOutTime == nil {
		return ""
	}
	return FormatSpan(r.CheckOutTime.Sub(*r.CheckInTime))
}

// FormatSpan renders a duration as "Hh Mm", truncating to whole minutes.
func FormatSpan(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// DeriveStatus maps today's record (nil when none exists) to a DayStatus.
func DeriveStatus(today *AttendanceRecord) DayStatus {
	switch {
	case today == nil || today.CheckInTime == nil:
		return StatusNotCheckedIn
	case today.CheckOutTime != nil:
		return StatusCheckedOut
	}
	if b := today.OpenBreak(); b != nil {
		return BreakStatus(b.Type)
	}
	return StatusWorking
}

// CheckInResult is the check-in response body.
type CheckInResult struct {
	CheckInTime *time.Time `json:"checkInTime"`
	Message     string     `json:"message"`
}

// CheckOutResult is the check-out response body.
type CheckOutResult struct {
	CheckOutTime *time.Time `json:"checkOutTime"`
	WorkingHours string     `json:"workingHours"`
	Message      string     `json:"message"`
}

// BreakStartResult is the break-start response body.
type BreakStartResult struct {
	StartTime              *time.Time `json:"startTime"`
	AllowedDurationMinutes int        `json:"allowedDurationMinutes"`
	Message                string     `json:"message"`
}

// BreakEndResult is the break-end response body.
type BreakEndResult struct {
	EndTime *time.Time `json:"endTime"`
	Message string     `json:"message"`
}
