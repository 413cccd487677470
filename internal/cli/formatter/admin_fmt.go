package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/guard"
)

// FormatStats lays out the three dashboard cards side by side.
func FormatStats(s domain.DashboardStats) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		StatCard("Total Employees", s.TotalEmployees, StyleBlue),
		" ",
		StatCard("Checked In", s.CurrentlyCheckedIn, StyleGreen),
		" ",
		StatCard("On Break", s.OnBreak, StyleYellow),
	)
}

func FormatEmployees(list []domain.EmployeeRecord, clock domain.Clock) string {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{
			StyleGreen.Render(e.EmployeeID),
			Truncate(e.Name, 24),
			e.Email,
			e.Phone,
			clock.FormatDate(e.CreatedAt),
		})
	}
	return RenderTable([]string{"ID", "NAME", "EMAIL", "PHONE", "JOINED"}, rows, "No employees found.")
}

// FormatMissed renders missed meetings. The employee column is shown only
// when the list spans several people.
func FormatMissed(list []domain.MissedMeetingRecord, clock domain.Clock, withEmployee bool) string {
	headers := []string{"MEETING DATE", "MARKED AT"}
	if withEmployee {
		headers = append([]string{"EMPLOYEE"}, headers...)
	}
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		row := []string{clock.FormatDate(m.MeetingDate), clock.FormatTime(m.MarkedAt)}
		if withEmployee {
			row = append([]string{domain.CoalesceStr(m.EmployeeName, m.EmployeeID)}, row...)
		}
		rows = append(rows, row)
	}
	return RenderTable(headers, rows, "No missed meetings.")
}

// RouteRow pairs a route with the guard's answer for the current session.
type RouteRow struct {
	Route    guard.Route
	Decision guard.Decision
}

func FormatRoutes(rows []RouteRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		required := string(r.Route.Required)
		if r.Route.Public {
			required = "public"
		} else if required == "" {
			required = "any"
		}
		verdict := StyleGreen.Render("admit")
		if !r.Decision.Admit {
			verdict = StyleYellow.Render("→ " + r.Decision.RedirectTo)
		}
		out = append(out, []string{r.Route.Path, r.Route.Title, required, verdict})
	}
	return RenderTable([]string{"PATH", "PAGE", "REQUIRES", "DECISION"}, out, "")
}
