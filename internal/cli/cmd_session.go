package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	var passwordFile string

	cmd := &cobra.Command{
		Use:   "login [EMPLOYEE_ID]",
		Short: "Sign in and keep the session for later commands",
		Long: `Sign in with an employee ID and password. The password is read from
--password-file, from a hidden prompt on a terminal, or from the first
line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			} else if app.IsInteractive != nil && app.IsInteractive() {
				if err := huh.NewInput().Title("Employee ID").Value(&id).WithTheme(hraHuhTheme()).Run(); err != nil {
					return err
				}
			}
			id = strings.TrimSpace(id)
			if id == "" {
				return errors.New("employee ID is required")
			}

			password, err := readSecret(cmd, passwordFile, "Password: ")
			if err != nil {
				return err
			}

			if err := app.Session.SignIn(cmd.Context(), id, password); err != nil {
				return errors.New(loginFailure(err))
			}
			sess, _ := app.Session.CurrentUser()
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(
				fmt.Sprintf("Signed in as %s (%s)", sess.EmployeeID, formatter.RoleBadge(sess.Role))))
			return nil
		},
	}

	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the password from this file")
	return cmd
}

// readSecret reads a password from path, a hidden terminal prompt, or the
// first line of the command's stdin, in that order.
func readSecret(cmd *cobra.Command, path, prompt string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Not signed in."))
				return nil
			}
			app.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Signed out"))
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sess, ok := app.Session.CurrentUser()
			if !ok {
				fmt.Fprintln(out, formatter.Dim("Not signed in."))
			} else {
				fmt.Fprintf(out, "%s  %s\n", formatter.Bold(sess.EmployeeID), formatter.RoleBadge(sess.Role))
				if sess.ExpiresAt != nil {
					fmt.Fprintf(out, "%s %s\n", formatter.Dim("Token expires"),
						sess.ExpiresAt.In(app.Clock.Location()).Format("2006-01-02 15:04 MST"))
				}
			}

			if history <= 0 {
				return nil
			}
			events, err := app.Session.Store().History(cmd.Context(), history)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					e.CreatedAt.In(app.Clock.Location()).Format(time.DateTime),
					e.Kind,
					e.EmployeeID,
					e.Detail,
				})
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.RenderTable([]string{"WHEN", "EVENT", "EMPLOYEE", "DETAIL"}, rows, "No session history."))
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "Also show the last N session events")
	return cmd
}
