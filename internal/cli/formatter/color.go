package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ikkahin/hra/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusColor returns the style for an employee's day status.
func StatusColor(s domain.DayStatus) lipgloss.Style {
	switch s {
	case domain.StatusWorking:
		return StyleGreen
	case domain.StatusTeaBreak, domain.StatusLunchBreak:
		return StyleYellow
	case domain.StatusCheckedOut:
		return StyleBlue
	default:
		return StyleDim
	}
}

// StatusPill returns a colored indicator such as "● Working".
func StatusPill(s domain.DayStatus) string {
	icon := "●"
	switch s {
	case domain.StatusNotCheckedIn:
		icon = "○"
	case domain.StatusCheckedOut:
		icon = "✔"
	case domain.StatusTeaBreak, domain.StatusLunchBreak:
		icon = "◐"
	}
	return StatusColor(s).Render(icon + " " + s.Label())
}

// RecordPill colors a history label (Complete, In Progress, Absent).
func RecordPill(r domain.AttendanceRecord) string {
	switch r.Label() {
	case "Complete":
		return StyleGreen.Render("✔ Complete")
	case "In Progress":
		return StyleYellow.Render("● In Progress")
	default:
		return StyleRed.Render("✖ Absent")
	}
}

// RoleBadge renders a role in upper case.
func RoleBadge(r domain.Role) string {
	if r == "" {
		return StyleDim.Render("--")
	}
	if r == domain.RoleAdmin {
		return StylePurple.Render("ADMIN")
	}
	return StyleBlue.Render(strings.ToUpper(string(r)))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// Success, Warning and Failure prefix one-line command results.
func Success(text string) string {
	return StyleGreen.Render("✔ ") + text
}

func Warning(text string) string {
	return StyleYellow.Render("! " + text)
}

func Failure(text string) string {
	return StyleRed.Render("✖ " + text)
}
