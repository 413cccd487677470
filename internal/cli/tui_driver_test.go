package cli

import (
	"context"
	"testing"
	"time"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/teatest"
	"github.com/stretchr/testify/require"
)

// tuiCmdTimeout leaves room for Cmds that call the httptest backend.
const tuiCmdTimeout = 500 * time.Millisecond

// TestDriver wraps teatest.Driver with access to the app model: the view
// stack, the current route and the toast line.
type TestDriver struct {
	*teatest.Driver
}

// newTestDriver opens the TUI on route against h and drains Init. Realtime
// triggers are queued on the driver and delivered by Flush.
func newTestDriver(t *testing.T, h *harness, route string) *TestDriver {
	t.Helper()
	m := newAppModel(h.app, route)
	d := teatest.New(t, m, teatest.WithCmdTimeout(tuiCmdTimeout), teatest.WithSize(120, 40))
	m.state.SetSender(d.Post)
	d.DrainInit()
	return &TestDriver{Driver: d}
}

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

// ActiveViewID returns the ViewID of the top view, or -1 for an empty stack.
func (d *TestDriver) ActiveViewID() ViewID {
	v := d.appModel().activeView()
	if v == nil {
		return ViewID(-1)
	}
	return v.ID()
}

func (d *TestDriver) ActiveView() View {
	return d.appModel().activeView()
}

func (d *TestDriver) ViewStackLen() int {
	return len(d.appModel().viewStack)
}

func (d *TestDriver) Route() string {
	return d.appModel().state.Route
}

func (d *TestDriver) Toast() string {
	return d.appModel().state.Toast
}

// otherSession signs in a second client, as if from another terminal.
func (h *harness) otherSession(t *testing.T, id, password string) *api.Client {
	t.Helper()
	cfg := h.app.Config.API()
	res, err := api.NewClient(cfg).Login(context.Background(), id, password)
	require.NoError(t, err)
	return api.NewClient(cfg, api.WithTokenSource(staticToken(res.Token)))
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
