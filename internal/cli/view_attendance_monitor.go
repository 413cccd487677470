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

// dateFilterMsg applies a date chosen in the filter form.
type dateFilterMsg struct {
	date string
}

// attendanceMonitorView lists every attendance record with search and date
// filters. Filtering is local; the full list is refetched on updates.
type attendanceMonitorView struct {
	live
	state   *SharedState
	records []domain.AttendanceRecord
	loading bool
	err     error

	searching bool
	filter    domain.AttendanceFilter
}

func newAttendanceMonitorView(state *SharedState) *attendanceMonitorView {
	return &attendanceMonitorView{state: state, loading: true}
}

func (v *attendanceMonitorView) ID() ViewID          { return ViewAttendanceMonitor }
func (v *attendanceMonitorView) Title() string       { return "Attendance" }
func (v *attendanceMonitorView) CapturesInput() bool { return v.searching }

func (v *attendanceMonitorView) ShortHelp() []key.Binding {
	if v.searching {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "date")),
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (v *attendanceMonitorView) Init() tea.Cmd {
	v.start(v.state, "admin-attendance", domain.EventAttendanceUpdate, domain.EventBreakUpdate)
	return v.load()
}

func (v *attendanceMonitorView) load() tea.Cmd {
	admin := v.state.App.Admin
	return v.fetch(func(ctx context.Context) (any, error) {
		records, err := admin.Attendance(ctx, domain.AttendanceFilter{})
		return records, err
	})
}

func (v *attendanceMonitorView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("admin-attendance", msg.err)
			return v, nil
		}
		v.records = msg.data.([]domain.AttendanceRecord)
	case dateFilterMsg:
		v.filter.Date = msg.date
	case tea.KeyMsg:
		if v.searching {
			v.updateSearch(msg)
			return v, nil
		}
		switch msg.String() {
		case "/":
			v.searching = true
		case "d":
			return v, v.openDateFilter()
		case "t":
			v.filter.Date = v.state.App.Clock.Today()
		case "c":
			v.filter = domain.AttendanceFilter{}
		}
	}
	return v, nil
}

func (v *attendanceMonitorView) updateSearch(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		v.searching = false
		v.filter.Search = ""
	case tea.KeyEnter:
		v.searching = false
	case tea.KeyBackspace:
		if r := []rune(v.filter.Search); len(r) > 0 {
			v.filter.Search = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		v.filter.Search += string(msg.Runes)
	}
}

func (v *attendanceMonitorView) openDateFilter() tea.Cmd {
	date := v.filter.Date
	return openForm("Filter by date", dateFilterForm(&date), func() tea.Cmd {
		return func() tea.Msg { return dateFilterMsg{date: strings.TrimSpace(date)} }
	})
}

func (v *attendanceMonitorView) visible() []domain.AttendanceRecord {
	return domain.FilterAttendance(v.records, v.filter, v.state.App.Clock)
}

func (v *attendanceMonitorView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	var chips []string
	if v.searching || v.filter.Search != "" {
		cursor := ""
		if v.searching {
			cursor = "█"
		}
		chips = append(chips, formatter.StyleYellow.Render("/")+" "+v.filter.Search+cursor)
	}
	if v.filter.Date != "" {
		chips = append(chips, formatter.StyleBlue.Render("date ")+v.filter.Date)
	}
	if len(chips) > 0 {
		b.WriteString(strings.Join(chips, "   ") + "\n\n")
	}
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if v.loading && v.records == nil {
		b.WriteString(formatter.Dim("Loading attendance...") + "\n")
		return b.String()
	}
	list := v.visible()
	b.WriteString(formatter.Dim(fmt.Sprintf("%d of %d records", len(list), len(v.records))) + "\n\n")
	b.WriteString(formatter.FormatAttendance(list, v.state.App.Clock))
	return b.String()
}
