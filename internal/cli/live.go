package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/refresh"
)

const fetchTimeout = 15 * time.Second

// fetchedMsg carries one page fetch result, tagged with the ticket issued
// when the fetch began.
type fetchedMsg struct {
	ticket refresh.Ticket
	data   any
	err    error
}

// live ties a page to the refresh coordinator: realtime events and
// reconnects reach the page as triggerMsg, and fetch results are accepted
// only while the page is still mounted.
type live struct {
	state *SharedState
	mount *refresh.Mount
}

// start mounts the page. Call it from Init.
func (l *live) start(state *SharedState, page string, events ...string) {
	l.state = state
	l.mount = state.App.Refresh.Mount(page, state.App.Channel, func(t refresh.Trigger) {
		state.Post(triggerMsg{t})
	}, events...)
}

// owns reports whether a trigger is addressed to this page.
func (l *live) owns(t refresh.Trigger) bool {
	return l.mount != nil && l.mount.Owns(t.MountID)
}

// fetch runs fn off the event loop. The ticket is taken now, so results
// of overlapping fetches are applied newest-last.
func (l *live) fetch(fn func(ctx context.Context) (any, error)) tea.Cmd {
	if l.mount == nil {
		return nil
	}
	ticket := l.mount.Begin()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		data, err := fn(ctx)
		return fetchedMsg{ticket: ticket, data: data, err: err}
	}
}

// accept reports whether msg belongs to this page and is not stale.
func (l *live) accept(msg fetchedMsg) bool {
	return l.mount != nil && l.mount.Accept(msg.ticket)
}

// Close releases the page's realtime handlers.
func (l *live) Close() {
	if l.mount != nil {
		l.mount.Unmount()
	}
}

// logFetchError records a failed fetch. The page keeps its last data.
func (l *live) logFetchError(page string, err error) {
	if l.state == nil || err == nil {
		return
	}
	l.state.App.Logger.Warn("page_fetch_failed", "page", page, "error", err)
}
