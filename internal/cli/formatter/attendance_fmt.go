package formatter

import (
	"fmt"
	"strings"

	"github.com/ikkahin/hra/internal/domain"
)

// FormatDay renders the employee's today panel: status, times and breaks.
func FormatDay(status domain.DayStatus, today *domain.AttendanceRecord, clock domain.Clock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold("Status"), StatusPill(status))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Date  "), clock.Today())
	if today == nil {
		b.WriteString(Dim("No attendance recorded today.") + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("In    "), clock.FormatTime(today.CheckInTime))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Out   "), clock.FormatTime(today.CheckOutTime))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Hours "), HoursOr(*today))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Breaks"), Breaks(today.Breaks, clock))
	return b.String()
}

// FormatHistory renders the employee's own records, newest as returned.
func FormatHistory(records []domain.AttendanceRecord, clock domain.Clock) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			clock.RecordDate(r),
			clock.FormatTime(r.CheckInTime),
			clock.FormatTime(r.CheckOutTime),
			HoursOr(r),
			fmt.Sprintf("%d", len(r.Breaks)),
			RecordPill(r),
		})
	}
	return RenderTable(
		[]string{"DATE", "CHECK IN", "CHECK OUT", "HOURS", "BREAKS", "STATUS"},
		rows, "No attendance records yet.")
}

// FormatAttendance renders the admin monitor table with per-record breaks.
func FormatAttendance(records []domain.AttendanceRecord, clock domain.Clock) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		name := r.EmployeeName
		if name == "" {
			name = Dim("--")
		}
		rows = append(rows, []string{
			StyleGreen.Render(r.EmployeeID),
			Truncate(name, 22),
			clock.RecordDate(r),
			clock.FormatTime(r.CheckInTime),
			clock.FormatTime(r.CheckOutTime),
			HoursOr(r),
			Breaks(r.Breaks, clock),
		})
	}
	return RenderTable(
		[]string{"ID", "NAME", "DATE", "IN", "OUT", "HOURS", "BREAKS"},
		rows, "No attendance records match.")
}
