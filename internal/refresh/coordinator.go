// Package refresh keeps a page's data in step with the realtime channel.
// A page mounts, fetches, refetches in full on every relevant event or
// reconnect, and releases exactly its own handlers when it unmounts.
package refresh

import (
	"io"
	"log/slog"
	"sync"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/realtime"
)

// Channel is the part of the realtime client a page subscribes through.
type Channel interface {
	Subscribe(name string, h realtime.Handler) *realtime.Subscription
	Connected() bool
}

// Trigger asks the mount identified by MountID to refetch.
type Trigger struct {
	MountID uint64
	Page    string
	Event   string
}

// Coordinator hands out mount IDs and tracks which mounts are live.
type Coordinator struct {
	logger *slog.Logger

	mu     sync.Mutex
	next   uint64
	mounts map[uint64]*Mount
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{logger: logger, mounts: make(map[uint64]*Mount)}
}

// Mount subscribes notify to each event plus the channel's connect event,
// so a reconnect refetches too. Duplicate names register once.
func (c *Coordinator) Mount(page string, ch Channel, notify func(Trigger), events ...string) *Mount {
	c.mu.Lock()
	c.next++
	m := &Mount{id: c.next, page: page, coord: c, mounted: true}
	c.mounts[m.id] = m
	c.mu.Unlock()

	names := append(append([]string(nil), events...), domain.EventConnect)
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		name := name
		sub := ch.Subscribe(name, func(realtime.Event) {
			if !m.Active() {
				return
			}
			notify(Trigger{MountID: m.id, Page: page, Event: name})
		})
		m.subs = append(m.subs, sub)
	}
	c.logger.Debug("page_mounted", "page", page, "mount_id", m.id, "handlers", len(m.subs))
	return m
}

// Owns reports whether id names a live mount.
func (c *Coordinator) Owns(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.mounts[id]
	return ok
}

// Active returns the number of live mounts.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mounts)
}

func (c *Coordinator) forget(m *Mount) {
	c.mu.Lock()
	delete(c.mounts, m.id)
	c.mu.Unlock()
	c.logger.Debug("page_unmounted", "page", m.page, "mount_id", m.id)
}

// Mount is one page's subscription handle.
type Mount struct {
	id    uint64
	page  string
	coord *Coordinator

	mu       sync.Mutex
	mounted  bool
	subs     []*realtime.Subscription
	issued   uint64
	accepted uint64
}

func (m *Mount) ID() uint64 {
	return m.id
}

func (m *Mount) Page() string {
	return m.page
}

// Active is false once Unmount has run.
func (m *Mount) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

// Owns reports whether a trigger or result tagged with id belongs to this
// live mount.
func (m *Mount) Owns(id uint64) bool {
	return id == m.id && m.Active()
}

// Unmount releases the mount's handlers. Later calls do nothing.
func (m *Mount) Unmount() {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	m.mounted = false
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	for _, s := range subs {
		s.Release()
	}
	m.coord.forget(m)
}

// Ticket tags one fetch so its result can be matched to the mount.
type Ticket struct {
	MountID uint64
	Seq     uint64
}

// Begin issues a ticket for a new fetch.
func (m *Mount) Begin() Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return Ticket{MountID: m.id, Seq: m.issued}
}

// Accept reports whether a fetch result should be applied: the mount is
// live, the ticket is its own, and no newer result was applied already.
func (m *Mount) Accept(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mounted || t.MountID != m.id || t.Seq < m.accepted {
		return false
	}
	m.accepted = t.Seq
	return true
}

// Optimistic sets *state to next and returns a rollback that restores the
// previous value, unless something else has changed the state since.
func Optimistic[T comparable](state *T, next T) (rollback func()) {
	prev := *state
	*state = next
	return func() {
		if *state == next {
			*state = prev
		}
	}
}
