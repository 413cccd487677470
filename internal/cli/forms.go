package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
)

// hraHuhTheme returns a huh theme matching the formatter palette.
func hraHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithTheme(hraHuhTheme()).WithShowHelp(false)
}

type loginFields struct {
	employeeID string
	password   string
}

func loginForm(f *loginFields) *huh.Form {
	return newForm(huh.NewGroup(
		requiredInput("Employee ID", "EMP001", &f.employeeID),
		passwordInput("Password", &f.password),
	))
}

type registerFields struct {
	name     string
	email    string
	phone    string
	password string
}

// registerForm collects a new employee. nextID previews the identifier the
// server is expected to assign.
func registerForm(f *registerFields, nextID string) *huh.Form {
	return newForm(huh.NewGroup(
		huh.NewNote().Title("New employee").Description("Will be registered as "+nextID),
		requiredInput("Name", "Full name", &f.name),
		huh.NewInput().Title("Email").Placeholder("name@company.com").Value(&f.email).Validate(validateEmail),
		requiredInput("Phone", "9876543210", &f.phone),
		passwordInput("Password", &f.password),
	))
}

type absenceFields struct {
	employeeID string
	date       string
}

// absenceForm picks an employee and a meeting date, defaulting to today.
func absenceForm(f *absenceFields, employees []domain.EmployeeRecord, today string) *huh.Form {
	if f.date == "" {
		f.date = today
	}
	opts := make([]huh.Option[string], 0, len(employees))
	for _, e := range employees {
		opts = append(opts, huh.NewOption(e.EmployeeID+"  "+e.Name, e.EmployeeID))
	}
	if f.employeeID == "" && len(employees) > 0 {
		f.employeeID = employees[0].EmployeeID
	}
	return newForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Employee").Options(opts...).Value(&f.employeeID),
		dateInput("Meeting date (YYYY-MM-DD)", false, &f.date),
	))
}

// dateFilterForm edits the attendance monitor's date filter. Blank clears
// it.
func dateFilterForm(value *string) *huh.Form {
	return newForm(huh.NewGroup(dateInput("Date (YYYY-MM-DD, blank for all)", true, value)))
}
