package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/ikkahin/hra/internal/cli/formatter"
)

// loginResultMsg reports a finished sign-in attempt.
type loginResultMsg struct {
	employeeID string
	err        error
}

// loginView is the public /login page. On success it does nothing itself:
// the app model sees the new session and the guard sends the user home.
type loginView struct {
	state   *SharedState
	fields  *loginFields
	form    *huh.Form
	pending bool
}

func newLoginView(state *SharedState) *loginView {
	v := &loginView{state: state}
	v.reset("")
	return v
}

func (v *loginView) reset(employeeID string) {
	v.fields = &loginFields{employeeID: employeeID}
	v.form = loginForm(v.fields)
}

func (v *loginView) ID() ViewID          { return ViewLogin }
func (v *loginView) Title() string       { return "Login" }
func (v *loginView) CapturesInput() bool { return !v.pending }

func (v *loginView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (v *loginView) Init() tea.Cmd {
	return v.form.Init()
}

func (v *loginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.pending = false
		if msg.err != nil {
			v.state.toast(toastError, loginFailure(msg.err))
			v.reset(msg.employeeID)
			return v, v.form.Init()
		}
		return v, nil
	case fetchedMsg, triggerMsg, refreshViewMsg:
		return v, nil
	}
	if v.pending {
		return v, nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State == huh.StateCompleted {
		v.pending = true
		return v, tea.Batch(cmd, submitLogin(v.state.App, *v.fields))
	}
	return v, cmd
}

// submitLogin signs in off the event loop.
func submitLogin(app *App, f loginFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		id := strings.TrimSpace(f.employeeID)
		return loginResultMsg{employeeID: id, err: app.Session.SignIn(ctx, id, f.password)}
	}
}

func (v *loginView) View() string {
	var b strings.Builder
	b.WriteString("\n  " + formatter.Bold("HR Attendance") + "\n")
	b.WriteString("  " + formatter.Dim("Sign in with your employee ID") + "\n\n")
	if v.pending {
		b.WriteString("  " + formatter.Dim("Signing in...") + "\n")
		return b.String()
	}
	b.WriteString(v.form.View())
	return b.String()
}
