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
)

// registeredMsg reports a finished registration.
type registeredMsg struct {
	res *api.RegisterResult
	err error
}

// employeesView lists employees with an inline filter and opens the
// registration form.
type employeesView struct {
	live
	state     *SharedState
	employees []domain.EmployeeRecord
	loading   bool
	err       error

	filtering bool
	filter    string
}

func newEmployeesView(state *SharedState) *employeesView {
	return &employeesView{state: state, loading: true}
}

func (v *employeesView) ID() ViewID          { return ViewEmployees }
func (v *employeesView) Title() string       { return "Employees" }
func (v *employeesView) CapturesInput() bool { return v.filtering }

func (v *employeesView) ShortHelp() []key.Binding {
	if v.filtering {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "register")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	}
}

func (v *employeesView) Init() tea.Cmd {
	v.start(v.state, "admin-employees")
	return v.load()
}

func (v *employeesView) load() tea.Cmd {
	admin := v.state.App.Admin
	return v.fetch(func(ctx context.Context) (any, error) {
		list, err := admin.Employees(ctx, "")
		return list, err
	})
}

func (v *employeesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("admin-employees", msg.err)
			return v, nil
		}
		v.employees = msg.data.([]domain.EmployeeRecord)
	case registeredMsg:
		if msg.err != nil {
			return v, toast(toastError, api.UserMessage(msg.err))
		}
		return v, tea.Batch(
			toast(toastInfo, fmt.Sprintf("%s: %s", domain.CoalesceStr(msg.res.Message, "Employee registered"), msg.res.EmployeeID)),
			v.load(),
		)
	case tea.KeyMsg:
		if v.filtering {
			return v, v.updateFilter(msg)
		}
		switch msg.String() {
		case "/":
			v.filtering = true
		case "n":
			return v, v.openRegister()
		}
	}
	return v, nil
}

func (v *employeesView) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.filtering = false
		v.filter = ""
	case tea.KeyEnter:
		v.filtering = false
	case tea.KeyBackspace:
		if r := []rune(v.filter); len(r) > 0 {
			v.filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		v.filter += string(msg.Runes)
	}
	return nil
}

func (v *employeesView) openRegister() tea.Cmd {
	fields := &registerFields{}
	next := domain.NextEmployeeID(len(v.employees))
	app := v.state.App
	return openForm("Register", registerForm(fields, next), func() tea.Cmd {
		return submitRegister(app, *fields)
	})
}

func submitRegister(app *App, f registerFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		res, err := app.Admin.Register(ctx, api.RegisterEmployeeRequest{
			Name:     f.name,
			Email:    f.email,
			Phone:    f.phone,
			Password: f.password,
		})
		return registeredMsg{res: res, err: err}
	}
}

func (v *employeesView) visible() []domain.EmployeeRecord {
	return domain.FilterEmployees(v.employees, v.filter)
}

func (v *employeesView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.filtering || v.filter != "" {
		cursor := ""
		if v.filtering {
			cursor = "█"
		}
		b.WriteString(formatter.StyleYellow.Render("/") + " " + v.filter + cursor + "\n\n")
	}
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.loading && v.employees == nil {
		b.WriteString(formatter.Dim("Loading employees...") + "\n")
		return b.String()
	}
	list := v.visible()
	b.WriteString(formatter.Dim(fmt.Sprintf("%d of %d employees", len(list), len(v.employees))) + "\n\n")
	b.WriteString(formatter.FormatEmployees(list, v.state.App.Clock))
	return b.String()
}
