package cli

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/config"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/realtime"
	"github.com/ikkahin/hra/internal/refresh"
	"github.com/ikkahin/hra/internal/service"
	"github.com/ikkahin/hra/internal/session"
	"github.com/spf13/cobra"
)

// Channel is the realtime connection as commands and views use it.
type Channel interface {
	Subscribe(name string, h realtime.Handler) *realtime.Subscription
	Connected() bool
	Emit(ctx context.Context, name string, payload any) error
	Start()
	Reconnect()
	Close() error
}

// App holds references to everything CLI commands and TUI views use. It is
// wired lazily by the root command, or up front by tests.
type App struct {
	Flags  config.Flags
	Config config.Config
	Logger *slog.Logger
	Clock  domain.Clock

	Session    *session.Manager
	API        *api.Client
	Channel    Channel
	Refresh    *refresh.Coordinator
	Attendance *service.AttendanceService
	Admin      *service.AdminService
	Meetings   *service.MeetingService

	// IsInteractive reports whether stdin is a terminal. When true and no
	// subcommand is given, the TUI starts.
	IsInteractive func() bool

	startOnce sync.Once
	closers   []io.Closer
}

// NewRootCmd creates the top-level "hra" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "hra",
		Short:         "Attendance terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && app.IsInteractive() {
				return runTUI(cmd.Context(), app, "")
			}
			return cmd.Help()
		},
	}
	app.Flags.Bind(root.PersistentFlags())

	root.AddCommand(
		newTUICmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newStatusCmd(app),
		newCheckInCmd(app),
		newCheckOutCmd(app),
		newBreakCmd(app),
		newAttendanceCmd(app),
		newEmployeesCmd(app),
		newMeetingsCmd(app),
		newWatchCmd(app),
		newRoutesCmd(app),
	)

	return root
}
