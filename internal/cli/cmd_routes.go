package cli

import (
	"fmt"

	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/guard"
	"github.com/spf13/cobra"
)

func newRoutesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "routes [PATH]",
		Short: "Show which pages the current session may open",
		Long: `Show every page with the role it requires and what the route guard
decides for the current session. With PATH, print only the page the guard
would finally land on.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, authed := app.Session.CurrentUser()
			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), guard.Final(args[0], authed, sess.Role))
				return nil
			}
			var rows []formatter.RouteRow
			for _, r := range guard.Routes() {
				rows = append(rows, formatter.RouteRow{
					Route:    r,
					Decision: guard.Resolve(r.Path, authed, sess.Role),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRoutes(rows))
			return nil
		},
	}
}
