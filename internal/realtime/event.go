package realtime

import (
	"encoding/json"
	"fmt"
)

// Event is one named message delivered to subscribers. Lifecycle events
// produced by the client itself travel on the same bus.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %q has no payload", e.Name)
	}
	return json.Unmarshal(e.Payload, v)
}

func newEvent(name string, payload any) Event {
	if payload == nil {
		return Event{Name: name}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{Name: name}
	}
	return Event{Name: name, Payload: raw}
}

// DisconnectInfo is the payload of a disconnect event.
type DisconnectInfo struct {
	Reason string `json:"reason"`
}

// AttemptInfo is the payload of reconnect and reconnect_attempt events.
type AttemptInfo struct {
	Attempt int `json:"attempt"`
}

// ErrorInfo is the payload of a connect_error event.
type ErrorInfo struct {
	Message string `json:"message"`
}
