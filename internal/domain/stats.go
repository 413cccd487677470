package domain

import "strings"

// DashboardStats is the admin home summary over today's records.
type DashboardStats struct {
	TotalEmployees     int
	CurrentlyCheckedIn int
	OnBreak            int
}

// ComputeDashboardStats counts today's records that are checked in without a
// checkout, and those with an open break.
func ComputeDashboardStats(employees int, records []AttendanceRecord, clock Clock) DashboardStats {
	stats := DashboardStats{TotalEmployees: employees}
	for _, r := range clock.TodayRecords(records) {
		if r.CheckInTime != nil && r.CheckOutTime == nil {
			stats.CurrentlyCheckedIn++
		}
		if r.OpenBreak() != nil {
			stats.OnBreak++
		}
	}
	return stats
}

// AttendanceFilter narrows the admin attendance list.
type AttendanceFilter struct {
	Search string
	Date   string
}

func (f AttendanceFilter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Date == ""
}

// FilterAttendance applies a case-insensitive search over employee name and
// ID, and an exact calendar-date match in the clock's zone.
func FilterAttendance(records []AttendanceRecord, f AttendanceFilter, clock Clock) []AttendanceRecord {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	var out []AttendanceRecord
	for _, r := range records {
		if q != "" &&
			!strings.Contains(strings.ToLower(r.EmployeeName), q) &&
			!strings.Contains(strings.ToLower(r.EmployeeID), q) {
			continue
		}
		if f.Date != "" && clock.RecordDate(r) != f.Date {
			continue
		}
		out = append(out, r)
	}
	return out
}
