package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/service"
)

// adminDashboardView shows today's stats and attendance. It refetches on
// every attendance or break update and on reconnect.
type adminDashboardView struct {
	live
	state    *SharedState
	overview *service.AdminOverview
	loading  bool
	err      error
}

func newAdminDashboardView(state *SharedState) *adminDashboardView {
	return &adminDashboardView{state: state, loading: true}
}

func (v *adminDashboardView) ID() ViewID    { return ViewAdminDashboard }
func (v *adminDashboardView) Title() string { return "Dashboard" }

func (v *adminDashboardView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("2"), key.WithHelp("2-4", "pages")),
	}
}

func (v *adminDashboardView) Init() tea.Cmd {
	v.start(v.state, "admin-dashboard", domain.EventAttendanceUpdate, domain.EventBreakUpdate)
	return v.load()
}

func (v *adminDashboardView) load() tea.Cmd {
	admin := v.state.App.Admin
	return v.fetch(func(ctx context.Context) (any, error) {
		ov, err := admin.Overview(ctx)
		return ov, err
	})
}

func (v *adminDashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("admin-dashboard", msg.err)
			return v, nil
		}
		ov := msg.data.(service.AdminOverview)
		v.overview = &ov
	}
	return v, nil
}

func (v *adminDashboardView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString("  " + formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.overview == nil {
		if v.loading {
			b.WriteString("  " + formatter.Dim("Loading dashboard...") + "\n")
		}
		return b.String()
	}
	b.WriteString(formatter.FormatStats(v.overview.Stats) + "\n\n")
	b.WriteString(formatter.Header("Today's attendance") + "\n")
	b.WriteString(formatter.FormatAttendance(v.overview.Today, v.state.App.Clock))
	return b.String()
}
