package refresh

import (
	"sync"
	"testing"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type triggerLog struct {
	mu   sync.Mutex
	list []Trigger
}

func (l *triggerLog) add(t Trigger) {
	l.mu.Lock()
	l.list = append(l.list, t)
	l.mu.Unlock()
}

func (l *triggerLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.list)
}

func TestMount_TriggersOnEventsAndConnect(t *testing.T) {
	ch := testutil.NewFakeChannel()
	c := NewCoordinator(nil)
	log := &triggerLog{}

	m := c.Mount("/admin", ch, log.add, domain.EventAttendanceUpdate, domain.EventBreakUpdate)
	assert.Equal(t, 1, ch.Count(domain.EventAttendanceUpdate))
	assert.Equal(t, 1, ch.Count(domain.EventBreakUpdate))
	assert.Equal(t, 1, ch.Count(domain.EventConnect))

	ch.Fire(domain.EventAttendanceUpdate, domain.AttendanceUpdate{Type: domain.UpdateCheckIn})
	ch.Fire(domain.EventConnect, nil)
	ch.Fire(domain.EventMeetingUpdate, nil)

	require.Equal(t, 2, log.len())
	assert.Equal(t, Trigger{MountID: m.ID(), Page: "/admin", Event: domain.EventAttendanceUpdate}, log.list[0])
	assert.Equal(t, domain.EventConnect, log.list[1].Event)
}

func TestMount_DuplicateNamesRegisterOnce(t *testing.T) {
	ch := testutil.NewFakeChannel()
	c := NewCoordinator(nil)
	events := []string{domain.EventAttendanceUpdate, domain.EventAttendanceUpdate, domain.EventConnect}
	c.Mount("/employee", ch, func(Trigger) {}, events...)
	assert.Equal(t, 1, ch.Count(domain.EventAttendanceUpdate))
	assert.Equal(t, 1, ch.Count(domain.EventConnect))
	assert.Len(t, events, 3)
}

func TestUnmount_NoTriggerAfterwards(t *testing.T) {
	ch := testutil.NewFakeChannel()
	c := NewCoordinator(nil)
	log := &triggerLog{}
	m := c.Mount("/admin/attendance", ch, log.add, domain.EventAttendanceUpdate)

	m.Unmount()
	ch.Fire(domain.EventAttendanceUpdate, nil)
	ch.Fire(domain.EventConnect, nil)

	assert.Zero(t, log.len())
	assert.Zero(t, ch.Total())
	assert.False(t, m.Active())
	assert.False(t, m.Owns(m.ID()))
	assert.False(t, c.Owns(m.ID()))

	assert.NotPanics(t, m.Unmount)
}

func TestRepeatedMountCycles_DoNotLeakHandlers(t *testing.T) {
	ch := testutil.NewFakeChannel()
	c := NewCoordinator(nil)
	for i := 0; i < 50; i++ {
		m := c.Mount("/employee", ch, func(Trigger) {}, domain.EventAttendanceUpdate, domain.EventBreakUpdate)
		assert.Equal(t, 1, ch.Count(domain.EventAttendanceUpdate))
		m.Unmount()
	}
	assert.Zero(t, ch.Total())
	assert.Zero(t, c.Active())
}

func TestUnmount_ReleasesOnlyOwnHandlers(t *testing.T) {
	ch := testutil.NewFakeChannel()
	c := NewCoordinator(nil)
	first := &triggerLog{}
	second := &triggerLog{}
	a := c.Mount("/admin", ch, first.add, domain.EventAttendanceUpdate)
	b := c.Mount("/admin/attendance", ch, second.add, domain.EventAttendanceUpdate)
	assert.Equal(t, 2, ch.Count(domain.EventAttendanceUpdate))
	assert.Equal(t, 2, c.Active())

	a.Unmount()
	ch.Fire(domain.EventAttendanceUpdate, nil)
	assert.Zero(t, first.len())
	assert.Equal(t, 1, second.len())
	assert.True(t, b.Owns(b.ID()))
	assert.False(t, b.Owns(a.ID()))
}

func TestTickets_DropStaleAndUnmountedResults(t *testing.T) {
	ch := testutil.NewFakeChannel()
	m := NewCoordinator(nil).Mount("/employee/attendance", ch, func(Trigger) {})

	older := m.Begin()
	newer := m.Begin()
	assert.True(t, m.Accept(newer))
	assert.False(t, m.Accept(older), "older result after newer")
	assert.True(t, m.Accept(newer), "same result reapplied")

	foreign := Ticket{MountID: m.ID() + 1, Seq: 99}
	assert.False(t, m.Accept(foreign))

	late := m.Begin()
	m.Unmount()
	assert.False(t, m.Accept(late))
}

func TestOptimistic(t *testing.T) {
	status := domain.StatusNotCheckedIn
	rollback := Optimistic(&status, domain.StatusWorking)
	assert.Equal(t, domain.StatusWorking, status)
	rollback()
	assert.Equal(t, domain.StatusNotCheckedIn, status)

	rollback = Optimistic(&status, domain.StatusWorking)
	status = domain.StatusTeaBreak
	rollback()
	assert.Equal(t, domain.StatusTeaBreak, status, "newer state is not clobbered")
}
