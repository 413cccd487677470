package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/refresh"
	"github.com/spf13/cobra"
)

func newEmployeesCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.require(domain.RoleAdmin); err != nil {
				return err
			}
			list, err := app.Admin.Employees(cmd.Context(), search)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEmployees(list, app.Clock))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match name, email or employee ID")

	cmd.AddCommand(newEmployeesRegisterCmd(app))
	return cmd
}

func newEmployeesRegisterCmd(app *App) *cobra.Command {
	var name, email, phone, passwordFile string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new employee (admin)",
		Long: `Register a new employee. The server assigns the next EMPxxx ID. The
initial password is read from --password-file or the first line of stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.require(domain.RoleAdmin); err != nil {
				return err
			}
			if err := validateEmail(email); err != nil {
				return err
			}
			password, err := readSecret(cmd, passwordFile, "Initial password: ")
			if err != nil {
				return err
			}
			res, err := app.Admin.Register(cmd.Context(), api.RegisterEmployeeRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Phone:    strings.TrimSpace(phone),
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("%s: %s",
				domain.CoalesceStr(res.Message, "Employee registered"), res.EmployeeID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the initial password from this file")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newMeetingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Daily meeting absences",
	}

	var date string
	mark := &cobra.Command{
		Use:   "mark EMPLOYEE_ID",
		Short: "Mark an employee absent from a meeting (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.require(domain.RoleAdmin); err != nil {
				return err
			}
			if date != "" {
				if _, err := domain.ParseDate(date); err != nil {
					return err
				}
			}
			id := strings.ToUpper(strings.TrimSpace(args[0]))
			_, out, err := app.Admin.MarkAbsence(cmd.Context(), id, date)
			if err != nil {
				return err
			}
			out.Message += " for " + id
			printOutcome(cmd, app, out)
			return nil
		},
	}
	mark.Flags().StringVar(&date, "date", "", "Meeting date, YYYY-MM-DD (default today)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "missed",
			Short: "List meetings you missed",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.require(domain.RoleEmployee); err != nil {
					return err
				}
				list, err := app.Meetings.Missed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMissed(list, app.Clock, false))
				return nil
			},
		},
		mark,
	)
	return cmd
}

func newWatchCmd(app *App) *cobra.Command {
	var maxUpdates int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the dashboard and reprint it on every realtime update",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.require("")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cmd, app, sess.Role, maxUpdates)
		},
	}
	cmd.Flags().IntVar(&maxUpdates, "max-updates", 0, "Exit after this many updates (0 runs until interrupted)")
	return cmd
}

// watch mounts a page on the refresh coordinator and prints a fresh
// snapshot on mount and after every trigger.
func watch(ctx context.Context, cmd *cobra.Command, app *App, role domain.Role, maxUpdates int) error {
	out := cmd.OutOrStdout()
	render := func() error {
		if role == domain.RoleAdmin {
			ov, err := app.Admin.Overview(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatStats(ov.Stats))
			fmt.Fprint(out, formatter.FormatAttendance(ov.Today, app.Clock))
			return nil
		}
		day, err := app.Attendance.Today(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatDay(day.Status, day.Today, app.Clock))
		return nil
	}

	page, events := "watch-employee", []string{domain.EventAttendanceUpdate, domain.EventBreakUpdate}
	if role == domain.RoleAdmin {
		page = "watch-admin"
	}

	triggers := make(chan refresh.Trigger, 16)
	app.startChannel()
	mount := app.Refresh.Mount(page, app.Channel, func(t refresh.Trigger) {
		select {
		case triggers <- t:
		default:
		}
	}, events...)
	defer mount.Unmount()

	if err := render(); err != nil {
		return err
	}
	for updates := 0; maxUpdates <= 0 || updates < maxUpdates; {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case t := <-triggers:
			updates++
			fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("── %s (%s) ──", t.Event, app.Clock.Now().Format("15:04:05"))))
			if err := render(); err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Failure(Friendly(err)))
			}
		}
	}
	return nil
}
