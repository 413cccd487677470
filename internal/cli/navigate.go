package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/refresh"
)

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// navigateMsg replaces the whole stack with the page for path, after the
// route guard has had its say.
type navigateMsg struct {
	path string
}

// pushViewMsg pushes a new view (a form) onto the navigation stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the current view off the navigation stack,
// returning to the previous view.
type popViewMsg struct{}

// toastMsg shows a transient message under the header.
type toastMsg struct {
	level toastLevel
	text  string
}

// refreshViewMsg asks every page on the stack to refetch.
type refreshViewMsg struct{}

// triggerMsg carries a realtime refresh request to the page that mounted
// it.
type triggerMsg struct {
	refresh.Trigger
}

// formClosedMsg pops the open form, then runs next.
type formClosedMsg struct {
	next tea.Cmd
}

// loggedOutMsg follows a completed logout.
type loggedOutMsg struct{}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

func toast(level toastLevel, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{level: level, text: text} }
}

func closeForm(level toastLevel, text string) formClosedMsg {
	return formClosedMsg{next: toast(level, text)}
}
