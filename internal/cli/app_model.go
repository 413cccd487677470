package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/guard"
)

// appModel is the root bubbletea model. The bottom of the view stack is
// the page for the current route; forms are pushed above it.
type appModel struct {
	state     *SharedState
	viewStack []View
	quitting  bool
}

// newAppModel builds the model on the page the guard admits for route.
func newAppModel(app *App, route string) appModel {
	state := &SharedState{App: app}
	sess, authed := app.Session.CurrentUser()
	path := guard.Final(route, authed, sess.Role)
	state.Route = path
	return appModel{
		state:     state,
		viewStack: []View{newPage(state, path)},
	}
}

func (m appModel) activeView() View {
	if len(m.viewStack) == 0 {
		return nil
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *appModel) setActiveView(v View) {
	if len(m.viewStack) > 0 {
		m.viewStack[len(m.viewStack)-1] = v
	}
}

func (m appModel) Init() tea.Cmd {
	if v := m.activeView(); v != nil {
		return v.Init()
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if m.quitting {
		return m, cmd
	}
	if nav := m.enforce(); nav != nil {
		cmd = tea.Batch(cmd, nav)
	}
	return m, cmd
}

func (m *appModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		return m.broadcast(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case navigateMsg:
		return m.navigate(msg.path)

	case pushViewMsg:
		m.viewStack = append(m.viewStack, msg.view)
		return msg.view.Init()

	case popViewMsg:
		m.pop()
		return nil

	case formClosedMsg:
		m.pop()
		return msg.next

	case toastMsg:
		m.state.toast(msg.level, msg.text)
		return nil

	case loggedOutMsg:
		return nil

	case tea.QuitMsg:
		m.quit()
		return nil
	}

	// Everything else (fetch results, triggers, refresh requests, form
	// internals) reaches every view; each ignores what is not its own.
	return m.broadcast(msg)
}

func (m *appModel) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, v := range m.viewStack {
		updated, cmd := v.Update(msg)
		m.viewStack[i] = updated.(View)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// navigate replaces the stack with the page the guard admits for path.
// The old pages release their realtime handlers first.
func (m *appModel) navigate(path string) tea.Cmd {
	sess, authed := m.state.App.Session.CurrentUser()
	final := guard.Final(path, authed, sess.Role)
	m.closeAll()
	v := newPage(m.state, final)
	m.state.Route = final
	m.viewStack = []View{v}
	return v.Init()
}

// enforce re-checks the current route after every message, so a logout or
// an expired session (cleared by the gateway on a 401) leaves protected
// pages immediately.
func (m *appModel) enforce() tea.Cmd {
	sess, authed := m.state.App.Session.CurrentUser()
	final := guard.Final(m.state.Route, authed, sess.Role)
	if final == m.state.Route {
		return nil
	}
	if !authed && m.state.Route != guard.PathLogin {
		if m.state.signingOut {
			m.state.toast(toastInfo, "Signed out")
		} else {
			m.state.toast(toastWarn, "Session expired, please sign in again")
		}
	}
	m.state.signingOut = false
	return m.navigate(final)
}

func (m *appModel) pop() {
	if len(m.viewStack) <= 1 {
		return
	}
	top := m.viewStack[len(m.viewStack)-1]
	if c, ok := top.(closer); ok {
		c.Close()
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *appModel) closeAll() {
	for _, v := range m.viewStack {
		if c, ok := v.(closer); ok {
			c.Close()
		}
	}
	m.viewStack = nil
}

func (m *appModel) quit() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.closeAll()
}

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quit()
		return tea.Quit
	}
	m.state.clearToast()

	v := m.activeView()
	if viewCapturesInput(v) {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return cmd
	}

	switch s := msg.String(); {
	case s == "q":
		m.quit()
		return tea.Quit

	case msg.Type == tea.KeyEsc:
		m.pop()
		return nil

	case s == "r":
		m.state.App.Channel.Reconnect()
		return m.broadcast(refreshViewMsg{})

	case s == "l":
		if !m.state.App.Session.IsAuthenticated() {
			break
		}
		m.state.signingOut = true
		return logoutCmd(m.state.App)

	case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
		items := guard.NavItems(m.state.App.Session.Role())
		if i := int(s[0] - '1'); i < len(items) && len(m.viewStack) == 1 {
			return m.navigate(items[i].Path)
		}
		return nil
	}

	if v != nil {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return cmd
	}
	return nil
}

// logoutCmd clears the session off the event loop, since session
// listeners may post to the program.
func logoutCmd(app *App) tea.Cmd {
	return func() tea.Msg {
		app.Session.Logout(context.Background())
		return loggedOutMsg{}
	}
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if t := m.renderToast(); t != "" {
		sections = append(sections, t)
	}
	if v := m.activeView(); v != nil {
		sections = append(sections, v.View())
	}
	sections = append(sections, m.renderStatusBar())

	result := strings.Join(sections, "\n")

	// Pad to terminal height to prevent stale line artifacts from
	// bubbletea's line-diff renderer in alt-screen mode.
	if m.state.Height > 0 {
		lines := strings.Count(result, "\n") + 1
		if lines < m.state.Height {
			result += strings.Repeat("\n", m.state.Height-lines)
		}
	}
	return result
}

// ── rendering helpers ────────────────────────────────────────────────────────

func (m *appModel) renderHeader() string {
	title := formatter.StylePurple.Render("hra")

	var crumbs []string
	for _, v := range m.viewStack {
		if t := v.Title(); t != "" {
			crumbs = append(crumbs, t)
		}
	}
	header := title
	if len(crumbs) > 0 {
		header += " " + formatter.Dim("›") + " " + formatter.Dim(strings.Join(crumbs, " › "))
	}

	app := m.state.App
	if sess, ok := app.Session.CurrentUser(); ok {
		header += "  " + formatter.Dim("[") + formatter.StyleGreen.Render(sess.EmployeeID) +
			" " + formatter.RoleBadge(sess.Role) + formatter.Dim("]")
	}
	if app.Channel.Connected() {
		header += "  " + formatter.StyleGreen.Render("● live")
	} else {
		header += "  " + formatter.Dim("○ offline")
	}

	var nav []string
	for i, r := range guard.NavItems(app.Session.Role()) {
		item := fmt.Sprintf("%d %s", i+1, r.Title)
		if r.Path == m.state.Route {
			nav = append(nav, formatter.StyleHeader.Render(item))
		} else {
			nav = append(nav, formatter.Dim(item))
		}
	}

	sep := formatter.Dim(strings.Repeat("─", max(m.state.Width, 20)))
	return header + "\n" + strings.Join(nav, "  ") + "\n" + sep
}

func (m *appModel) renderToast() string {
	if m.state.Toast == "" {
		return ""
	}
	switch m.state.ToastLevel {
	case toastError:
		return formatter.Failure(m.state.Toast)
	case toastWarn:
		return formatter.Warning(m.state.Toast)
	}
	return formatter.Success(m.state.Toast)
}

func (m *appModel) renderStatusBar() string {
	var hints []string
	if v := m.activeView(); v != nil {
		for _, b := range v.ShortHelp() {
			hints = append(hints, formatter.Dim(b.Help().Key+": "+b.Help().Desc))
		}
	}
	if !viewCapturesInput(m.activeView()) {
		if len(m.viewStack) > 1 {
			hints = append(hints, formatter.Dim("esc: back"))
		}
		if m.state.App.Session.IsAuthenticated() {
			hints = append(hints, formatter.Dim("r: refresh"), formatter.Dim("l: logout"))
		}
		hints = append(hints, formatter.Dim("q: quit"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(formatter.ColorDim)
	sep := sepStyle.Render(strings.Repeat("─", max(m.state.Width, 20)))
	return sep + "\n" + strings.Join(hints, "  ")
}
