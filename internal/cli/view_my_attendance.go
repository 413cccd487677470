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

// myAttendanceView lists the employee's own history. Any realtime update
// refetches it, since an admin can change meetings as well as attendance.
type myAttendanceView struct {
	live
	state   *SharedState
	day     *service.EmployeeDay
	loading bool
	err     error
}

func newMyAttendanceView(state *SharedState) *myAttendanceView {
	return &myAttendanceView{state: state, loading: true}
}

func (v *myAttendanceView) ID() ViewID               { return ViewMyAttendance }
func (v *myAttendanceView) Title() string            { return "My Attendance" }
func (v *myAttendanceView) ShortHelp() []key.Binding { return nil }

func (v *myAttendanceView) Init() tea.Cmd {
	v.start(v.state, "my-attendance",
		domain.EventAttendanceUpdate, domain.EventBreakUpdate, domain.EventMeetingUpdate)
	return v.load()
}

func (v *myAttendanceView) load() tea.Cmd {
	svc := v.state.App.Attendance
	return v.fetch(func(ctx context.Context) (any, error) {
		day, err := svc.Today(ctx)
		return day, err
	})
}

func (v *myAttendanceView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("my-attendance", msg.err)
			return v, nil
		}
		day := msg.data.(service.EmployeeDay)
		v.day = &day
	}
	return v, nil
}

func (v *myAttendanceView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.day == nil {
		if v.loading {
			b.WriteString(formatter.Dim("Loading history...") + "\n")
		}
		return b.String()
	}
	b.WriteString(formatter.Dim(fmt.Sprintf("%d records", len(v.day.Records))) + "\n\n")
	b.WriteString(formatter.FormatHistory(v.day.Records, v.state.App.Clock))
	return b.String()
}
