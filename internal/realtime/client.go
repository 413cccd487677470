package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrNotConnected is returned by Emit when the client has given up
// reconnecting, has been closed, or the caller stopped waiting.
var ErrNotConnected = errors.New("realtime channel not connected")

// closeTimeout bounds how long Close waits for the disconnect packet to
// leave over a stalled transport.
const closeTimeout = time.Second

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Disconnect reasons carried in DisconnectInfo.
const (
	ReasonClientClose  = "io client disconnect"
	ReasonServerClose  = "io server disconnect"
	ReasonTransport    = "transport close"
	ReasonTransportErr = "transport error"
	ReasonPingTimeout  = "ping timeout"
)

type Config struct {
	URL               string
	Path              string
	Transports        []string
	ReconnectAttempts int
	DelayMin          time.Duration
	DelayMax          time.Duration
	Randomization     float64
	// HandshakeTimeout bounds one connect attempt.
	HandshakeTimeout time.Duration
	// RequestTimeout bounds each long-polling request. It must outlast the
	// server's ping interval.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:               "http://localhost:5000",
		Path:              "/socket.io/",
		Transports:        []string{TransportWebSocket, TransportPolling},
		ReconnectAttempts: 5,
		DelayMin:          time.Second,
		DelayMax:          5 * time.Second,
		Randomization:     0.5,
		HandshakeTimeout:  10 * time.Second,
		RequestTimeout:    45 * time.Second,
	}
}

// Client is the process-wide realtime connection. Create one at startup,
// share it by reference and Start it once.
type Client struct {
	cfg      Config
	endpoint *url.URL
	bus      *Bus
	logger   *slog.Logger

	opts    *socket.Options
	order   []transports.TransportCtor
	manager *socket.Manager
	io      *socket.Socket

	mu        sync.Mutex
	state     State
	changed   chan struct{}
	active    string
	next      int
	closed    bool
	startOnce sync.Once
	closeOnce sync.Once
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBus shares an existing bus, so handlers can be registered before the
// client exists.
func WithBus(b *Bus) Option {
	return func(c *Client) {
		if b != nil {
			c.bus = b
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if len(cfg.Transports) == 0 {
		cfg.Transports = def.Transports
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	endpoint, err := Endpoint(cfg.URL, cfg.Path)
	if err != nil {
		return nil, err
	}
	order, err := transportOrder(cfg.Transports)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		endpoint: endpoint,
		bus:      NewBus(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		changed:  make(chan struct{}),
		order:    order,
	}
	for _, o := range opts {
		o(c)
	}

	c.opts = socket.DefaultOptions()
	c.opts.SetPath(strings.TrimRight(endpoint.Path, "/"))
	c.opts.SetTransports(types.NewSet(c.order[0]))
	c.opts.SetUpgrade(false)
	c.opts.SetRequestTimeout(cfg.RequestTimeout)
	c.opts.SetTimeout(cfg.HandshakeTimeout)
	c.opts.SetAutoConnect(false)
	c.opts.SetReconnection(true)
	c.opts.SetReconnectionAttempts(float64(cfg.ReconnectAttempts))
	c.opts.SetReconnectionDelay(float64(cfg.DelayMin.Milliseconds()))
	c.opts.SetReconnectionDelayMax(float64(cfg.DelayMax.Milliseconds()))
	c.opts.SetRandomizationFactor(cfg.Randomization)

	base := *endpoint
	base.Path = ""
	c.manager = socket.NewManager(base.String(), c.opts)
	c.io = c.manager.Socket("/", c.opts)

	c.io.On("connect", c.onConnect)
	c.io.On("disconnect", c.onDisconnect)
	c.io.On("connect_error", c.onConnectError)
	c.io.OnAny(c.onEvent)
	c.manager.On("reconnect_attempt", c.onReconnectAttempt)
	c.manager.On("reconnect", c.onReconnect)
	c.manager.On("reconnect_failed", c.onReconnectFailed)
	return c, nil
}

// Start begins connecting in the background. Later calls are no-ops.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		if c.isClosed() {
			return
		}
		c.setState(StateConnecting)
		c.io.Connect()
	})
}

// Reconnect restarts the connection loop after it has given up.
func (c *Client) Reconnect() {
	switch c.State() {
	case StateIdle:
		c.Start()
	case StateFailed:
		c.setState(StateConnecting)
		c.io.Connect()
	}
}

// Close drops the connection and stops reconnecting. It is idempotent and
// returns within closeTimeout even when the server stops answering.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.io.Disconnect()
		}()
		select {
		case <-done:
		case <-time.After(closeTimeout):
			c.logger.Warn("realtime_close_timeout", "after", closeTimeout)
		}
		c.setState(StateClosed)
	})
	return nil
}

func (c *Client) Subscribe(name string, h Handler) *Subscription {
	return c.bus.Subscribe(name, h)
}

func (c *Client) Unsubscribe(sub *Subscription) {
	c.bus.Unsubscribe(sub)
}

// HandlerCount returns how many handlers are registered for name.
func (c *Client) HandlerCount(name string) int {
	return c.bus.Count(name)
}

func (c *Client) Bus() *Bus {
	return c.bus
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Transport names the transport in use, or "" while disconnected.
func (c *Client) Transport() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Emit sends an event, waiting for a connection until ctx is done.
func (c *Client) Emit(ctx context.Context, name string, payload any) error {
	args, err := emitArgs(payload)
	if err != nil {
		return fmt.Errorf("emit %q: %w", name, err)
	}
	for {
		c.mu.Lock()
		st, changed := c.state, c.changed
		c.mu.Unlock()

		switch st {
		case StateFailed, StateClosed:
			return fmt.Errorf("emit %q: %w (%s)", name, ErrNotConnected, st)
		case StateConnected:
			if err := c.io.Emit(name, args...); err != nil {
				return fmt.Errorf("emit %q: %w", name, err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("emit %q: %w: %w", name, ErrNotConnected, ctx.Err())
		case <-changed:
		}
	}
}

// URL is the engine endpoint the client dials.
func (c *Client) URL() *url.URL {
	u := *c.endpoint
	return &u
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s || c.state == StateClosed || (c.closed && s != StateClosed) {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
	c.logger.Debug("realtime_state", "from", prev.String(), "to", s.String())
}

func (c *Client) publish(name string, payload any) {
	c.bus.Publish(newEvent(name, payload))
}

func (c *Client) onConnect(...any) {
	name := ""
	if e := c.manager.Engine(); e != nil {
		if t := e.Transport(); t != nil {
			name = t.Name()
		}
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.active = name
	c.mu.Unlock()

	c.setState(StateConnected)
	c.logger.Info("realtime_connected", "transport", name, "sid", c.io.Id())
	c.publish(domain.EventConnect, nil)
}

func (c *Client) onDisconnect(args ...any) {
	reason := argString(args)
	c.mu.Lock()
	c.active = ""
	closed := c.closed
	c.mu.Unlock()

	if closed {
		if reason == ReasonClientClose {
			c.publish(domain.EventDisconnect, DisconnectInfo{Reason: reason})
		}
		return
	}
	c.setState(StateReconnecting)
	c.logger.Warn("realtime_disconnected", "reason", reason)
	c.publish(domain.EventDisconnect, DisconnectInfo{Reason: reason})

	// The manager does not retry after a server-side disconnect.
	if reason == ReasonServerClose {
		go c.io.Connect()
	}
}

// onConnectError runs synchronously inside the manager's error path, before
// the next attempt is scheduled, so the transport switch is seen by it.
func (c *Client) onConnectError(args ...any) {
	msg := "connect failed"
	if len(args) > 0 {
		if err, ok := args[0].(error); ok && err != nil {
			msg = err.Error()
		}
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	failed := c.order[c.next]
	c.next = (c.next + 1) % len(c.order)
	following := c.order[c.next]
	c.mu.Unlock()

	if len(c.order) > 1 {
		c.opts.SetTransports(types.NewSet(following))
	}
	c.logger.Warn("realtime_connect_failed", "transport", failed.Name(), "error", msg)
	c.publish(domain.EventConnectError, ErrorInfo{Message: msg})
}

func (c *Client) onReconnectAttempt(args ...any) {
	if c.isClosed() {
		return
	}
	c.setState(StateReconnecting)
	c.publish(domain.EventReconnectAttempt, AttemptInfo{Attempt: argCount(args)})
}

func (c *Client) onReconnect(args ...any) {
	if c.isClosed() {
		return
	}
	c.publish(domain.EventReconnect, AttemptInfo{Attempt: argCount(args)})
}

func (c *Client) onReconnectFailed(...any) {
	if c.isClosed() {
		return
	}
	c.setState(StateFailed)
	c.logger.Error("realtime_reconnect_failed", "attempts", c.cfg.ReconnectAttempts)
	c.publish(domain.EventReconnectFailed, nil)
}

// onEvent forwards server events. args[0] is the event name.
func (c *Client) onEvent(args ...any) {
	if len(args) == 0 {
		return
	}
	name, ok := args[0].(string)
	if !ok {
		return
	}
	payload, err := eventPayload(args[1:])
	if err != nil {
		c.logger.Warn("realtime_bad_payload", "event", name, "error", err)
	}
	c.bus.Publish(Event{Name: name, Payload: payload})
}

// eventPayload re-encodes decoded event arguments: none is nil, one is
// its own JSON, several become a JSON array.
func eventPayload(args []any) (json.RawMessage, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return json.Marshal(args[0])
	}
	return json.Marshal(args)
}

// emitArgs turns payload into plain JSON values. Byte slices, including
// json.RawMessage, would otherwise travel as binary attachments.
func emitArgs(payload any) ([]any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return []any{v}, nil
}

func argString(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return s
}

func argCount(args []any) int {
	if len(args) == 0 {
		return 0
	}
	switch n := args[0].(type) {
	case uint64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
