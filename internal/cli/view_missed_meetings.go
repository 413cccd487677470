package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
)

type missedMeetingsView struct {
	live
	state   *SharedState
	list    []domain.MissedMeetingRecord
	loaded  bool
	loading bool
	err     error
}

func newMissedMeetingsView(state *SharedState) *missedMeetingsView {
	return &missedMeetingsView{state: state, loading: true}
}

func (v *missedMeetingsView) ID() ViewID               { return ViewMissedMeetings }
func (v *missedMeetingsView) Title() string            { return "Missed Meetings" }
func (v *missedMeetingsView) ShortHelp() []key.Binding { return nil }

func (v *missedMeetingsView) Init() tea.Cmd {
	v.start(v.state, "missed-meetings", domain.EventMeetingUpdate)
	return v.load()
}

func (v *missedMeetingsView) load() tea.Cmd {
	svc := v.state.App.Meetings
	return v.fetch(func(ctx context.Context) (any, error) {
		list, err := svc.Missed(ctx)
		return list, err
	})
}

func (v *missedMeetingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			v.logFetchError("missed-meetings", msg.err)
			return v, nil
		}
		v.list = msg.data.([]domain.MissedMeetingRecord)
		v.loaded = true
	}
	return v, nil
}

func (v *missedMeetingsView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render(api.UserMessage(v.err)) + "\n\n")
	}
	if !v.loaded {
		if v.loading {
			b.WriteString(formatter.Dim("Loading missed meetings...") + "\n")
		}
		return b.String()
	}
	b.WriteString(formatter.FormatMissed(v.list, v.state.App.Clock, false))
	return b.String()
}
