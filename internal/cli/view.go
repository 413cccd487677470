package cli

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/guard"
)

// ViewID identifies each type of view in the TUI.
type ViewID int

const (
	ViewLogin ViewID = iota
	ViewAdminDashboard
	ViewEmployees
	ViewAttendanceMonitor
	ViewMeetingsAdmin
	ViewEmployeeDashboard
	ViewMyAttendance
	ViewMissedMeetings
	ViewForm
)

// View is the interface that all TUI views must implement.
// It extends tea.Model with navigation and help metadata.
type View interface {
	tea.Model
	ID() ViewID
	ShortHelp() []key.Binding // key hints shown in the bottom bar
	Title() string            // breadcrumb segment for this view
}

// closer is implemented by views holding realtime subscriptions. The app
// model calls Close when the view leaves the stack.
type closer interface {
	Close()
}

// inputCapturer is implemented by views that need every key, including
// the global shortcuts.
type inputCapturer interface {
	CapturesInput() bool
}

// pages maps each route to its view constructor.
var pages = map[string]func(*SharedState) View{
	guard.PathLogin:              func(s *SharedState) View { return newLoginView(s) },
	guard.PathAdmin:              func(s *SharedState) View { return newAdminDashboardView(s) },
	guard.PathAdminEmployees:     func(s *SharedState) View { return newEmployeesView(s) },
	guard.PathAdminAttendance:    func(s *SharedState) View { return newAttendanceMonitorView(s) },
	guard.PathAdminMeetings:      func(s *SharedState) View { return newMeetingsAdminView(s) },
	guard.PathEmployee:           func(s *SharedState) View { return newEmployeeDashboardView(s) },
	guard.PathEmployeeAttendance: func(s *SharedState) View { return newMyAttendanceView(s) },
	guard.PathEmployeeMeetings:   func(s *SharedState) View { return newMissedMeetingsView(s) },
}

func newPage(state *SharedState, path string) View {
	if build, ok := pages[path]; ok {
		return build(state)
	}
	return newLoginView(state)
}

func viewCapturesInput(v View) bool {
	if v == nil {
		return false
	}
	c, ok := v.(inputCapturer)
	return ok && c.CapturesInput()
}
