package domain

import "time"

// Server event names.
const (
	EventAttendanceUpdate = "attendance-update"
	EventBreakUpdate      = "break-update"
	EventMeetingUpdate    = "meeting-update"
)

// Connection lifecycle event names, published on the same bus as server
// events.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventReconnect        = "reconnect"
	EventReconnectAttempt = "reconnect_attempt"
	EventReconnectFailed  = "reconnect_failed"
	EventConnectError     = "connect_error"
)

// Update kinds carried in AttendanceUpdate.Type.
const (
	UpdateCheckIn        = "check-in"
	UpdateCheckOut       = "check-out"
	UpdateBreakStart     = "break-start"
	UpdateBreakEnd       = "break-end"
	UpdateMeetingAbsence = "meeting-absence"
)

// AttendanceUpdate is the payload a client emits after a successful
// state-changing action so other sessions refresh.
type AttendanceUpdate struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// IsLifecycleEvent reports whether name is produced by the connection
// itself rather than the server.
func IsLifecycleEvent(name string) bool {
	switch name {
	case EventConnect, EventDisconnect, EventReconnect, EventReconnectAttempt,
		EventReconnectFailed, EventConnectError:
		return true
	}
	return false
}
