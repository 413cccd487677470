package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ikkahin/hra/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// StatCard renders one dashboard figure as a small bordered card.
func StatCard(label string, value int, style lipgloss.Style) string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(0, 2)
	return card.Render(Dim(label) + "\n" + style.Bold(true).Render(fmt.Sprintf("%d", value)))
}

// BreakLength renders a finished break as "N min" and an open one as
// "Ongoing".
func BreakLength(b domain.BreakEntry) string {
	d, done := b.Duration()
	if !done {
		return StyleYellow.Render("Ongoing")
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}

// Breaks lists a record's breaks on one line, such as
// "Tea 10:00 AM (15 min), Lunch 01:00 PM (Ongoing)".
func Breaks(breaks []domain.BreakEntry, clock domain.Clock) string {
	if len(breaks) == 0 {
		return Dim("--")
	}
	parts := make([]string, len(breaks))
	for i, b := range breaks {
		start := b.StartTime
		parts[i] = fmt.Sprintf("%s %s (%s)", b.Type.Title(), clock.FormatTime(&start), BreakLength(b))
	}
	return strings.Join(parts, ", ")
}

// HoursOr returns the record's working hours or a dim placeholder.
func HoursOr(r domain.AttendanceRecord) string {
	if h := r.Hours(); h != "" {
		return h
	}
	return Dim("--")
}

// Truncate shortens s to n visible characters, ending in "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
