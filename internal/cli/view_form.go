package cli

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// formView puts a huh.Form on the stack above the page that opened it.
// It owns every key while open, so number keys and q reach the fields.
type formView struct {
	title    string
	form     *huh.Form
	onSubmit func() tea.Cmd
}

// openForm pushes form. onSubmit runs once, after the last field, and its
// Cmd runs after the form is popped.
func openForm(title string, form *huh.Form, onSubmit func() tea.Cmd) tea.Cmd {
	return pushView(&formView{title: title, form: form, onSubmit: onSubmit})
}

func (v *formView) Init() tea.Cmd { return v.form.Init() }

func (v *formView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg { return closeForm(toastInfo, "Cancelled") }
		}
	case fetchedMsg, triggerMsg, refreshViewMsg:
		return v, nil
	}

	updated, cmd := v.form.Update(msg)
	if f, ok := updated.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State != huh.StateCompleted || v.onSubmit == nil {
		return v, cmd
	}

	next := v.onSubmit()
	v.onSubmit = nil
	return v, func() tea.Msg {
		return formClosedMsg{next: tea.Batch(cmd, next)}
	}
}

func (v *formView) View() string {
	return "\n" + v.form.View()
}

func (v *formView) ID() ViewID          { return ViewForm }
func (v *formView) Title() string       { return v.title }
func (v *formView) CapturesInput() bool { return true }

func (v *formView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
