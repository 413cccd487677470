package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkahin/hra/internal/realtime"
)

// FakeChannel is an in-process realtime channel. Server events are
// injected with Fire; emits are recorded and fail with EmitErr.
type FakeChannel struct {
	*realtime.Bus

	mu        sync.Mutex
	connected bool
	emitted   []realtime.Event
	started   int
	redials   int
	closed    bool
	EmitErr   error
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{Bus: realtime.NewBus(), connected: true}
}

func (f *FakeChannel) SetConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *FakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeChannel) Emit(_ context.Context, name string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EmitErr != nil {
		return f.EmitErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.emitted = append(f.emitted, realtime.Event{Name: name, Payload: raw})
	return nil
}

func (f *FakeChannel) Start() {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
}

func (f *FakeChannel) Reconnect() {
	f.mu.Lock()
	f.redials++
	f.mu.Unlock()
}

func (f *FakeChannel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.connected = false
	f.mu.Unlock()
	return nil
}

// Calls reports how often Start and Reconnect ran and whether Close did.
func (f *FakeChannel) Calls() (started, redials int, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.redials, f.closed
}

// Emitted returns the events sent so far, oldest first.
func (f *FakeChannel) Emitted() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]realtime.Event(nil), f.emitted...)
}

// Fire publishes a server event with payload to subscribers.
func (f *FakeChannel) Fire(name string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	f.Publish(realtime.Event{Name: name, Payload: raw})
}
