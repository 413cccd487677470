package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/refresh"
	"github.com/ikkahin/hra/internal/service"
)

// action is one attendance button on the employee dashboard.
type action struct {
	key      string
	label    string
	allowed  func(domain.DayStatus) bool
	expected func(domain.DayStatus) domain.DayStatus
	run      func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error)
}

var employeeActions = []action{
	{
		key:      "i",
		label:    "check in",
		allowed:  func(s domain.DayStatus) bool { return s == domain.StatusNotCheckedIn },
		expected: func(domain.DayStatus) domain.DayStatus { return domain.StatusWorking },
		run: func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error) {
			return svc.CheckIn(ctx)
		},
	},
	{
		key:      "t",
		label:    "tea break",
		allowed:  func(s domain.DayStatus) bool { return s == domain.StatusWorking },
		expected: func(domain.DayStatus) domain.DayStatus { return domain.StatusTeaBreak },
		run: func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error) {
			return svc.StartBreak(ctx, domain.BreakTea)
		},
	},
	{
		key:      "u",
		label:    "lunch break",
		allowed:  func(s domain.DayStatus) bool { return s == domain.StatusWorking },
		expected: func(domain.DayStatus) domain.DayStatus { return domain.StatusLunchBreak },
		run: func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error) {
			return svc.StartBreak(ctx, domain.BreakLunch)
		},
	},
	{
		key:      "e",
		label:    "end break",
		allowed:  domain.DayStatus.OnBreak,
		expected: func(domain.DayStatus) domain.DayStatus { return domain.StatusWorking },
		run: func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error) {
			return svc.EndBreak(ctx)
		},
	},
	{
		key:      "o",
		label:    "check out",
		allowed:  func(s domain.DayStatus) bool { return s == domain.StatusWorking },
		expected: func(domain.DayStatus) domain.DayStatus { return domain.StatusCheckedOut },
		run: func(ctx context.Context, svc *service.AttendanceService) (service.Outcome, error) {
			return svc.CheckOut(ctx)
		},
	},
}

func findAction(k string) (action, bool) {
	for _, a := range employeeActions {
		if a.key == k {
			return a, true
		}
	}
	return action{}, false
}

// actionDoneMsg reports the result of one attendance action.
type actionDoneMsg struct {
	label   string
	outcome service.Outcome
	err     error
}

// employeeDashboardView shows today's status and runs the attendance
// actions. A pressed action shows its expected status at once and rolls
// back if the server refuses it.
type employeeDashboardView struct {
	live
	state    *SharedState
	day      *service.EmployeeDay
	status   domain.DayStatus
	rollback func()
	busy     string
	loading  bool
	err      error
}

func newEmployeeDashboardView(state *SharedState) *employeeDashboardView {
	return &employeeDashboardView{state: state, loading: true, status: domain.StatusNotCheckedIn}
}

func (v *employeeDashboardView) ID() ViewID    { return ViewEmployeeDashboard }
func (v *employeeDashboardView) Title() string { return "Today" }

func (v *employeeDashboardView) ShortHelp() []key.Binding {
	var keys []key.Binding
	for _, a := range employeeActions {
		if v.busy == "" && a.allowed(v.status) {
			keys = append(keys, key.NewBinding(key.WithKeys(a.key), key.WithHelp(a.key, a.label)))
		}
	}
	return keys
}

func (v *employeeDashboardView) Init() tea.Cmd {
	v.start(v.state, "employee-dashboard", domain.EventAttendanceUpdate, domain.EventBreakUpdate)
	return v.load()
}

func (v *employeeDashboardView) load() tea.Cmd {
	svc := v.state.App.Attendance
	return v.fetch(func(ctx context.Context) (any, error) {
		day, err := svc.Today(ctx)
		return day, err
	})
}

func (v *employeeDashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case triggerMsg:
		if v.owns(msg.Trigger) {
			return v, v.load()
		}
	case refreshViewMsg:
		return v, v.load()
	case fetchedMsg:
		if !v.accept(msg) {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err != nil {
			v.logFetchError("employee-dashboard", msg.err)
			return v, nil
		}
		day := msg.data.(service.EmployeeDay)
		v.day = &day
		if v.busy == "" {
			v.status = day.Status
		}
	case actionDoneMsg:
		return v, v.finish(msg)
	case tea.KeyMsg:
		if a, ok := findAction(msg.String()); ok {
			return v, v.press(a)
		}
	}
	return v, nil
}

func (v *employeeDashboardView) press(a action) tea.Cmd {
	if v.busy != "" || !a.allowed(v.status) {
		return nil
	}
	v.busy = a.label
	v.rollback = refresh.Optimistic(&v.status, a.expected(v.status))
	svc := v.state.App.Attendance
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		out, err := a.run(ctx, svc)
		return actionDoneMsg{label: a.label, outcome: out, err: err}
	}
}

func (v *employeeDashboardView) finish(msg actionDoneMsg) tea.Cmd {
	v.busy = ""
	if msg.err != nil {
		if v.rollback != nil {
			v.rollback()
		}
		v.rollback = nil
		return toast(toastError, api.UserMessage(msg.err))
	}
	v.rollback = nil
	text := msg.outcome.Message
	if msg.outcome.WorkingHours != "" {
		text += " (" + msg.outcome.WorkingHours + ")"
	}
	if msg.outcome.AllowedMinutes > 0 {
		text += fmt.Sprintf(" (%d min allowed)", msg.outcome.AllowedMinutes)
	}
	level := toastInfo
	if msg.outcome.NotifyErr != nil {
		level = toastWarn
		text += ", other sessions were not notified"
	}
	return tea.Batch(toast(level, text), v.load())
}

func (v *employeeDashboardView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.day == nil && v.loading {
		b.WriteString(formatter.Dim("Loading today...") + "\n")
		return b.String()
	}
	var today *domain.AttendanceRecord
	if v.day != nil {
		today = v.day.Today
	}
	b.WriteString(formatter.FormatDay(v.status, today, v.state.App.Clock))
	b.WriteString("\n")
	if v.busy != "" {
		b.WriteString(formatter.Dim("Working on "+v.busy+"...") + "\n")
		return b.String()
	}
	var hints []string
	for _, a := range employeeActions {
		if a.allowed(v.status) {
			hints = append(hints, formatter.Bold(a.key)+" "+a.label)
		}
	}
	if len(hints) > 0 {
		b.WriteString(strings.Join(hints, "   ") + "\n")
	}
	return b.String()
}
