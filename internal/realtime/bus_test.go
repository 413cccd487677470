package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe("e", func(Event) { got = append(got, "first") })
	b.Subscribe("e", func(Event) { got = append(got, "second") })
	b.Subscribe("other", func(Event) { got = append(got, "other") })

	b.Publish(Event{Name: "e"})
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_ReleaseRemovesOnlyItsHandler(t *testing.T) {
	b := NewBus()
	calls := map[string]int{}
	a := b.Subscribe("e", func(Event) { calls["a"]++ })
	b.Subscribe("e", func(Event) { calls["b"]++ })
	require.Equal(t, 2, b.Count("e"))

	a.Release()
	a.Release()
	b.Unsubscribe(a)
	assert.Equal(t, 1, b.Count("e"))

	b.Publish(Event{Name: "e"})
	assert.Equal(t, 0, calls["a"])
	assert.Equal(t, 1, calls["b"])
}

func TestBus_HandlerMayReleaseItself(t *testing.T) {
	b := NewBus()
	var sub *Subscription
	n := 0
	sub = b.Subscribe("e", func(Event) {
		n++
		sub.Release()
	})
	b.Publish(Event{Name: "e"})
	b.Publish(Event{Name: "e"})
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, b.Total())
}

func TestBus_Total(t *testing.T) {
	b := NewBus()
	s1 := b.Subscribe("a", func(Event) {})
	b.Subscribe("b", func(Event) {})
	assert.Equal(t, 2, b.Total())
	assert.Equal(t, "a", s1.Name())
	s1.Release()
	assert.Equal(t, 1, b.Total())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Release)
}
