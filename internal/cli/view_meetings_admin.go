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
	"github.com/ikkahin/hra/internal/service"
)

// absenceMarkedMsg reports a finished mark-absence request.
type absenceMarkedMsg struct {
	employeeID string
	record     *domain.MissedMeetingRecord
	outcome    service.Outcome
	err        error
}

// meetingsAdminView marks meeting absences. The server offers no list of
// everyone's absences, so the page shows the ones marked in this session.
type meetingsAdminView struct {
	live
	state     *SharedState
	employees []domain.EmployeeRecord
	marked    []domain.MissedMeetingRecord
	loading   bool
	err       error
}

func newMeetingsAdminView(state *SharedState) *meetingsAdminView {
	return &meetingsAdminView{state: state, loading: true}
}

func (v *meetingsAdminView) ID() ViewID    { return ViewMeetingsAdmin }
func (v *meetingsAdminView) Title() string { return "Meetings" }

func (v *meetingsAdminView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark absence")),
	}
}

func (v *meetingsAdminView) Init() tea.Cmd {
	v.start(v.state, "admin-meetings")
	return v.load()
}

func (v *meetingsAdminView) load() tea.Cmd {
	admin := v.state.App.Admin
	return v.fetch(func(ctx context.Context) (any, error) {
		list, err := admin.Employees(ctx, "")
		return list, err
	})
}

func (v *meetingsAdminView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("admin-meetings", msg.err)
			return v, nil
		}
		v.employees = msg.data.([]domain.EmployeeRecord)
	case absenceMarkedMsg:
		return v, v.applyMarked(msg)
	case tea.KeyMsg:
		if msg.String() == "m" {
			return v, v.openMark()
		}
	}
	return v, nil
}

func (v *meetingsAdminView) applyMarked(msg absenceMarkedMsg) tea.Cmd {
	if msg.err != nil {
		return toast(toastError, api.UserMessage(msg.err))
	}
	rec := *msg.record
	if rec.EmployeeName == "" {
		for _, e := range v.employees {
			if e.EmployeeID == rec.EmployeeID {
				rec.EmployeeName = e.Name
			}
		}
	}
	v.marked = append([]domain.MissedMeetingRecord{rec}, v.marked...)
	text := fmt.Sprintf("%s for %s", msg.outcome.Message, msg.employeeID)
	if msg.outcome.NotifyErr != nil {
		return toast(toastWarn, text+" (other sessions were not notified)")
	}
	return toast(toastInfo, text)
}

func (v *meetingsAdminView) openMark() tea.Cmd {
	if len(v.employees) == 0 {
		return toast(toastWarn, "No employees to mark")
	}
	fields := &absenceFields{}
	app := v.state.App
	form := absenceForm(fields, v.employees, app.Clock.Today())
	return openForm("Mark absence", form, func() tea.Cmd {
		return submitAbsence(app, *fields)
	})
}

func submitAbsence(app *App, f absenceFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rec, out, err := app.Admin.MarkAbsence(ctx, f.employeeID, strings.TrimSpace(f.date))
		return absenceMarkedMsg{employeeID: f.employeeID, record: rec, outcome: out, err: err}
	}
}

func (v *meetingsAdminView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.loading && v.employees == nil {
		b.WriteString(formatter.Dim("Loading employees...") + "\n")
		return b.String()
	}
	b.WriteString(formatter.Dim(fmt.Sprintf("%d employees. Press m to mark a meeting absence.", len(v.employees))) + "\n\n")
	b.WriteString(formatter.Header("Marked this session") + "\n")
	b.WriteString(formatter.FormatMissed(v.marked, v.state.App.Clock, true))
	return b.String()
}
