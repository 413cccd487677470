package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/config"
	"github.com/ikkahin/hra/internal/db"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/guard"
	"github.com/ikkahin/hra/internal/logging"
	"github.com/ikkahin/hra/internal/realtime"
	"github.com/ikkahin/hra/internal/refresh"
	"github.com/ikkahin/hra/internal/service"
	"github.com/ikkahin/hra/internal/session"
)

var (
	ErrNotSignedIn = errors.New("not signed in, run `hra login`")
	ErrForbidden   = errors.New("not permitted for this role")
)

// open loads configuration and wires the App from it. An App that is
// already wired is left alone.
func (a *App) open(ctx context.Context) error {
	if a.Session != nil {
		return nil
	}
	cfg, err := config.Load(a.Flags)
	if err != nil {
		return err
	}
	a.Config = cfg

	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "-" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f)
		logOut = f
	}
	if a.Logger, err = logging.New(logOut, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, database)
	return a.Wire(ctx, database)
}

// Wire builds the session manager, gateway, realtime channel and services
// over database. Config must be set; Logger, Clock and Channel are filled
// in when empty.
func (a *App) Wire(ctx context.Context, database *sql.DB) error {
	if a.Logger == nil {
		a.Logger = logging.Discard()
	}
	if a.Clock.IsZero() {
		a.Clock = a.Config.Clock()
	}
	if a.Channel == nil {
		rt, err := realtime.NewClient(a.Config.RealtimeChannel(), realtime.WithLogger(a.Logger))
		if err != nil {
			return fmt.Errorf("realtime channel: %w", err)
		}
		a.Channel = rt
	}
	a.closers = append(a.closers, a.Channel)

	a.Session = session.NewManager(ctx, session.NewStore(database), nil, session.WithLogger(a.Logger))
	a.API = api.NewClient(a.Config.API(),
		api.WithTokenSource(a.Session),
		api.WithUnauthorizedHandler(a.Session.HandleUnauthorized),
		api.WithObserver(api.NewLogObserver(a.Logger)),
	)
	a.Session.SetAuthenticator(a.API)

	observer := service.NewLogUseCaseObserver(a.Logger)
	notifier := channelNotifier{app: a}
	a.Refresh = refresh.NewCoordinator(a.Logger)
	a.Attendance = service.NewAttendanceService(a.API, notifier, a.Session, a.Clock, observer)
	a.Admin = service.NewAdminService(a.API, notifier, a.Session, a.Clock, observer)
	a.Meetings = service.NewMeetingService(a.API)
	return nil
}

// Close releases the realtime connection, database and log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// startChannel connects the realtime channel on first use. One-shot
// commands that never emit never dial.
func (a *App) startChannel() {
	a.startOnce.Do(a.Channel.Start)
}

// channelNotifier starts the channel before the first emit.
type channelNotifier struct {
	app *App
}

func (n channelNotifier) Emit(ctx context.Context, name string, payload any) error {
	n.app.startChannel()
	return n.app.Channel.Emit(ctx, name, payload)
}

// require runs the route guard for a command that needs a signed-in user
// with role required (empty for any role).
func (a *App) require(required domain.Role) (domain.Session, error) {
	sess, ok := a.Session.CurrentUser()
	d := guard.Decide(ok, sess.Role, required)
	switch {
	case d.Admit:
		return sess, nil
	case d.RedirectTo == guard.PathLogin:
		return sess, ErrNotSignedIn
	}
	return sess, fmt.Errorf("%w: requires %s, signed in as %s", ErrForbidden, required, sess.Role)
}

// Friendly turns a command error into the line printed for the user.
// Gateway errors use the gateway's wording; everything else prints as is.
func Friendly(err error) string {
	var apiErr *api.APIError
	var valErr *api.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return "session expired, run `hra login`"
	case errors.As(err, &apiErr), errors.As(err, &valErr),
		errors.Is(err, api.ErrTimeout), errors.Is(err, api.ErrUnavailable):
		return api.UserMessage(err)
	}
	return err.Error()
}

// loginFailure is the message for a rejected sign-in. A wrong password is
// never distinguished from an unknown employee.
func loginFailure(err error) string {
	var apiErr *api.APIError
	var valErr *api.ValidationError
	switch {
	case errors.Is(err, session.ErrMissingCredentials), errors.As(err, &valErr):
		return "Employee ID and password are required"
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return "Invalid Employee ID or password"
	}
	return api.UserMessage(err)
}
