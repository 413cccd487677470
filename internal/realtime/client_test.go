package realtime_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/mockserver"
	"github.com/ikkahin/hra/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) handler(ev realtime.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) watch(c *realtime.Client, names ...string) {
	for _, n := range names {
		c.Subscribe(n, r.handler)
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

func (r *recorder) find(name string) (realtime.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Name == name {
			return ev, true
		}
	}
	return realtime.Event{}, false
}

func startMock(t *testing.T, interval, timeout time.Duration) (*mockserver.Server, *httptest.Server) {
	t.Helper()
	srv := mockserver.New(mockserver.Options{PingInterval: interval, PingTimeout: timeout})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().DisconnectAll()
		ts.Close()
		srv.Hub().Close()
	})
	return srv, ts
}

func newClient(t *testing.T, url string, transports ...string) *realtime.Client {
	t.Helper()
	cfg := realtime.DefaultConfig()
	cfg.URL = url
	cfg.DelayMin = 10 * time.Millisecond
	cfg.DelayMax = 40 * time.Millisecond
	cfg.Randomization = 0
	cfg.HandshakeTimeout = 2 * time.Second
	if len(transports) > 0 {
		cfg.Transports = transports
	}
	c, err := realtime.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ConnectsOverWebSocket(t *testing.T) {
	srv, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)
	rec := &recorder{}
	rec.watch(c, domain.EventConnect)

	assert.Equal(t, realtime.StateIdle, c.State())
	c.Start()

	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)
	assert.Equal(t, realtime.TransportWebSocket, c.Transport())
	require.Eventually(t, func() bool { return srv.Hub().Connected() == 1 }, waitFor, 10*time.Millisecond)
	_, ok := rec.find(domain.EventConnect)
	assert.True(t, ok)
}

func TestClient_ConnectsOverPolling(t *testing.T) {
	srv, ts := startMock(t, 100*time.Millisecond, time.Second)
	c := newClient(t, ts.URL, realtime.TransportPolling)
	c.Start()

	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)
	assert.Equal(t, realtime.TransportPolling, c.Transport())

	// Survives several heartbeat rounds.
	time.Sleep(350 * time.Millisecond)
	assert.True(t, c.Connected())
	assert.Equal(t, 1, srv.Hub().Connected())
}

func TestClient_TriesTransportsInOrder(t *testing.T) {
	_, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket, realtime.TransportPolling)
	c.Start()
	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)
	assert.Equal(t, realtime.TransportWebSocket, c.Transport())
}

func TestClient_ServerEventsReachSubscribers(t *testing.T) {
	srv, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)
	got := make(chan domain.AttendanceUpdate, 1)
	c.Subscribe(domain.EventAttendanceUpdate, func(ev realtime.Event) {
		var u domain.AttendanceUpdate
		if err := ev.Decode(&u); err == nil {
			got <- u
		}
	})
	c.Start()
	require.Eventually(t, func() bool { return srv.Hub().Connected() == 1 }, waitFor, 10*time.Millisecond)

	srv.Hub().Emit(domain.EventAttendanceUpdate, domain.AttendanceUpdate{Type: domain.UpdateCheckIn, UserID: "EMP001"})

	select {
	case u := <-got:
		assert.Equal(t, domain.UpdateCheckIn, u.Type)
		assert.Equal(t, "EMP001", u.UserID)
	case <-time.After(waitFor):
		t.Fatal("event not delivered")
	}
}

func TestClient_EmitRebroadcastsToOtherClients(t *testing.T) {
	srv, ts := startMock(t, time.Second, time.Second)
	sender := newClient(t, ts.URL, realtime.TransportWebSocket)
	listener := newClient(t, ts.URL, realtime.TransportPolling)
	got := make(chan string, 1)
	listener.Subscribe(domain.EventBreakUpdate, func(ev realtime.Event) {
		var u domain.AttendanceUpdate
		_ = ev.Decode(&u)
		got <- u.Type
	})
	sender.Start()
	listener.Start()
	require.Eventually(t, func() bool { return srv.Hub().Connected() == 2 }, waitFor, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	err := sender.Emit(ctx, domain.EventBreakUpdate, domain.AttendanceUpdate{Type: domain.UpdateBreakStart, UserID: "EMP002"})
	require.NoError(t, err)

	select {
	case typ := <-got:
		assert.Equal(t, domain.UpdateBreakStart, typ)
	case <-time.After(waitFor):
		t.Fatal("rebroadcast not delivered")
	}
	require.Eventually(t, func() bool { return len(srv.Hub().Received()) == 1 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, domain.EventBreakUpdate, srv.Hub().Received()[0].Name)
}

func TestClient_EmitWaitsForConnection(t *testing.T) {
	srv, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		done <- c.Emit(ctx, domain.EventAttendanceUpdate, domain.AttendanceUpdate{Type: domain.UpdateCheckOut})
	}()
	time.Sleep(20 * time.Millisecond)
	c.Start()

	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return len(srv.Hub().Received()) == 1 }, waitFor, 10*time.Millisecond)
}

func TestClient_EmitHonoursContext(t *testing.T) {
	_, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Emit(ctx, domain.EventAttendanceUpdate, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, realtime.ErrNotConnected)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	srv, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)
	rec := &recorder{}
	rec.watch(c, domain.EventConnect, domain.EventDisconnect, domain.EventReconnect, domain.EventReconnectAttempt)
	c.Start()
	require.Eventually(t, func() bool { return srv.Hub().Connected() == 1 }, waitFor, 10*time.Millisecond)

	srv.Hub().DisconnectAll()

	require.Eventually(t, func() bool {
		connects := 0
		for _, n := range rec.names() {
			if n == domain.EventConnect {
				connects++
			}
		}
		return connects == 2
	}, waitFor, 10*time.Millisecond)
	assert.True(t, c.Connected())

	names := rec.names()
	assert.Equal(t, domain.EventConnect, names[0])
	assert.Contains(t, names, domain.EventDisconnect)
	assert.Contains(t, names, domain.EventReconnectAttempt)
	assert.Equal(t, domain.EventConnect, names[len(names)-1])

	ev, _ := rec.find(domain.EventReconnect)
	var info realtime.AttemptInfo
	require.NoError(t, ev.Decode(&info))
	assert.Equal(t, 1, info.Attempt)
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	cfg := realtime.DefaultConfig()
	cfg.URL = url
	cfg.Transports = []string{realtime.TransportWebSocket}
	cfg.ReconnectAttempts = 2
	cfg.DelayMin = time.Millisecond
	cfg.DelayMax = 2 * time.Millisecond
	c, err := realtime.NewClient(cfg)
	require.NoError(t, err)
	defer c.Close()

	rec := &recorder{}
	rec.watch(c, domain.EventConnectError, domain.EventReconnectAttempt, domain.EventReconnectFailed)
	c.Start()

	require.Eventually(t, func() bool { return c.State() == realtime.StateFailed }, waitFor, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := rec.find(domain.EventReconnectFailed)
		return ok
	}, waitFor, 5*time.Millisecond)

	attempts := 0
	for _, n := range rec.names() {
		if n == domain.EventReconnectAttempt {
			attempts++
		}
	}
	assert.Equal(t, 2, attempts)

	err = c.Emit(context.Background(), domain.EventAttendanceUpdate, nil)
	assert.True(t, errors.Is(err, realtime.ErrNotConnected))
}

func TestClient_ReconnectAfterFailure(t *testing.T) {
	srv := mockserver.New(mockserver.Options{PingInterval: time.Second, PingTimeout: time.Second})
	ts := httptest.NewUnstartedServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := realtime.DefaultConfig()
	cfg.URL = "http://" + ts.Listener.Addr().String()
	cfg.Transports = []string{realtime.TransportWebSocket}
	cfg.ReconnectAttempts = 1
	cfg.DelayMin = time.Millisecond
	cfg.DelayMax = time.Millisecond
	cfg.HandshakeTimeout = 200 * time.Millisecond
	c, err := realtime.NewClient(cfg)
	require.NoError(t, err)
	defer c.Close()

	c.Start()
	require.Eventually(t, func() bool { return c.State() == realtime.StateFailed }, waitFor, 5*time.Millisecond)

	ts.Start()
	c.Reconnect()
	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	_, ts := startMock(t, time.Second, time.Second)
	c := newClient(t, ts.URL, realtime.TransportWebSocket)
	rec := &recorder{}
	rec.watch(c, domain.EventDisconnect)
	c.Start()
	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, realtime.StateClosed, c.State())

	ev, ok := rec.find(domain.EventDisconnect)
	require.True(t, ok)
	var info realtime.DisconnectInfo
	require.NoError(t, ev.Decode(&info))
	assert.Equal(t, realtime.ReasonClientClose, info.Reason)

	err := c.Emit(context.Background(), domain.EventAttendanceUpdate, nil)
	assert.ErrorIs(t, err, realtime.ErrNotConnected)
}

// stalledPolling speaks just enough long-polling to open a session and
// acknowledge the namespace, then holds every later request open.
type stalledPolling struct {
	release chan struct{}

	mu    sync.Mutex
	gets  int
	posts int
}

func (s *stalledPolling) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	if r.URL.Query().Get("sid") == "" {
		_, _ = io.WriteString(w, `0{"sid":"stalled","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`)
		return
	}
	s.mu.Lock()
	var n int
	if r.Method == http.MethodPost {
		s.posts++
		n = s.posts
	} else {
		s.gets++
		n = s.gets
	}
	s.mu.Unlock()

	if n == 1 {
		if r.Method == http.MethodPost {
			_, _ = io.WriteString(w, "ok")
		} else {
			_, _ = io.WriteString(w, `40{"sid":"stalled-ns"}`)
		}
		return
	}
	select {
	case <-r.Context().Done():
	case <-s.release:
	}
}

func TestClient_CloseReturnsWhenServerStalls(t *testing.T) {
	stub := &stalledPolling{release: make(chan struct{})}
	ts := httptest.NewServer(stub)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(stub.release) })

	c := newClient(t, ts.URL, realtime.TransportPolling)
	c.Start()
	require.Eventually(t, c.Connected, waitFor, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = c.Emit(ctx, domain.EventBreakUpdate, domain.AttendanceUpdate{Type: domain.UpdateBreakStart})

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Close blocked on a stalled server")
	}
	assert.Equal(t, realtime.StateClosed, c.State())
}

func TestClient_CloseBeforeStart(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1", realtime.TransportWebSocket)
	require.NoError(t, c.Close())
	assert.Equal(t, realtime.StateClosed, c.State())
	c.Start()
	assert.Equal(t, realtime.StateClosed, c.State())
}

func TestClient_HandlerCount(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1")
	sub := c.Subscribe(domain.EventAttendanceUpdate, func(realtime.Event) {})
	c.Subscribe(domain.EventAttendanceUpdate, func(realtime.Event) {})
	assert.Equal(t, 2, c.HandlerCount(domain.EventAttendanceUpdate))
	c.Unsubscribe(sub)
	assert.Equal(t, 1, c.HandlerCount(domain.EventAttendanceUpdate))
	assert.Equal(t, 1, c.Bus().Total())
}

func TestNewClient_RejectsUnknownTransport(t *testing.T) {
	cfg := realtime.DefaultConfig()
	cfg.Transports = []string{"carrier-pigeon"}
	_, err := realtime.NewClient(cfg)
	assert.ErrorIs(t, err, realtime.ErrUnknownTransport)
}
