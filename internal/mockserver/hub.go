package mockserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkahin/hra/internal/realtime"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Hub serves Socket.IO on the default namespace. Client events are recorded
// and rebroadcast to every other connected socket.
type Hub struct {
	logger  *slog.Logger
	io      *socket.Server
	handler http.Handler

	mu     sync.Mutex
	events []realtime.Event
}

func NewHub(logger *slog.Logger, pingInterval, pingTimeout time.Duration) *Hub {
	opts := socket.DefaultServerOptions()
	opts.SetPingInterval(pingInterval)
	opts.SetPingTimeout(pingTimeout)
	opts.SetTransports(types.NewSet("polling", "websocket"))
	opts.SetServeClient(false)

	h := &Hub{logger: logger, io: socket.NewServer(nil, opts)}
	h.handler = h.io.ServeHandler(opts)
	h.io.On("connection", h.onConnection)
	return h
}

func (h *Hub) onConnection(clients ...any) {
	s, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	h.logger.Debug("hub_socket_open", "sid", s.Id())
	s.OnAny(func(args ...any) {
		if len(args) == 0 {
			return
		}
		name, ok := args[0].(string)
		if !ok {
			return
		}
		ev := realtime.Event{Name: name}
		if len(args) > 1 {
			raw, err := json.Marshal(args[1])
			if err != nil {
				h.logger.Warn("hub_bad_payload", "event", name, "error", err)
			}
			ev.Payload = raw
		}
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
		if err := s.Broadcast().Emit(name, args[1:]...); err != nil {
			h.logger.Warn("hub_rebroadcast_failed", "event", name, "error", err)
		}
	})
	s.On("disconnect", func(reason ...any) {
		h.logger.Debug("hub_socket_closed", "sid", s.Id(), "reason", reason)
	})
}

// Emit sends an event to every connected socket.
func (h *Hub) Emit(name string, payload any) {
	var args []any
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("hub_encode_failed", "event", name, "error", err)
			return
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			h.logger.Error("hub_encode_failed", "event", name, "error", err)
			return
		}
		args = append(args, v)
	}
	h.io.Emit(name, args...)
}

// Connected returns the number of sockets joined to the namespace.
func (h *Hub) Connected() int {
	return h.io.Sockets().Sockets().Len()
}

// Received returns the events clients have emitted, oldest first.
func (h *Hub) Received() []realtime.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]realtime.Event(nil), h.events...)
}

// DisconnectAll drops every transport without a disconnect packet, as a
// server restart would, so clients reconnect on their own.
func (h *Hub) DisconnectAll() {
	h.io.Sockets().Sockets().Range(func(_ socket.SocketId, s *socket.Socket) bool {
		s.Conn().Close(true)
		return true
	})
}

// Close shuts the Socket.IO server down.
func (h *Hub) Close() {
	h.io.Close(nil)
}

func (h *Hub) Serve(c *gin.Context) {
	h.handler.ServeHTTP(c.Writer, c.Request)
}
