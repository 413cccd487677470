package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ikkahin/hra/internal/guard"
	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	var route string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen attendance app",
		Long: `Open the full-screen app on the given route. The route guard applies:
signed-out users land on the login page and users without the page's role
are sent to their home page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), app, route)
		},
	}
	cmd.Flags().StringVar(&route, "route", "", "Page to open, e.g. "+guard.PathAdminEmployees)
	return cmd
}

// runTUI starts the realtime channel and runs the program until the user
// quits. Realtime triggers reach the program through SharedState.Post.
func runTUI(ctx context.Context, app *App, route string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app.startChannel()

	m := newAppModel(app, route)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.state.SetSender(p.Send)
	defer m.state.SetSender(nil)

	final, err := p.Run()
	if fm, ok := final.(appModel); ok {
		fm.closeAll()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
