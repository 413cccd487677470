package cli

import (
	"context"
	"fmt"

	"github.com/ikkahin/hra/internal/cli/formatter"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/service"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's attendance status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.require(domain.RoleEmployee); err != nil {
				return err
			}
			day, err := app.Attendance.Today(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDay(day.Status, day.Today, app.Clock))
			return nil
		},
	}
}

// runAction runs one employee attendance action and prints its outcome.
// A failed realtime notification is a warning, not an error.
func runAction(cmd *cobra.Command, app *App, fn func(ctx context.Context) (service.Outcome, error)) error {
	if _, err := app.require(domain.RoleEmployee); err != nil {
		return err
	}
	out, err := fn(cmd.Context())
	if err != nil {
		return err
	}
	printOutcome(cmd, app, out)
	return nil
}

func printOutcome(cmd *cobra.Command, app *App, out service.Outcome) {
	line := out.Message
	if out.At != nil {
		line += " at " + app.Clock.FormatTime(out.At)
	}
	if out.WorkingHours != "" {
		line += ", worked " + out.WorkingHours
	}
	if out.AllowedMinutes > 0 {
		line += fmt.Sprintf(", %d min allowed", out.AllowedMinutes)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(line))
	if out.NotifyErr != nil {
		app.Logger.Warn("notify_failed", "error", out.NotifyErr)
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.Warning("other sessions were not notified: "+out.NotifyErr.Error()))
	}
}

func newCheckInCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Check in for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, app.Attendance.CheckIn)
		},
	}
}

func newCheckOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Check out for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, app.Attendance.CheckOut)
		},
	}
}

func newBreakCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Start or end a break",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "start tea|lunch",
			Short:     "Start a tea or lunch break",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(domain.BreakTea), string(domain.BreakLunch)},
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := domain.ParseBreakType(args[0])
				if err != nil {
					return err
				}
				return runAction(cmd, app, func(ctx context.Context) (service.Outcome, error) {
					return app.Attendance.StartBreak(ctx, kind)
				})
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "End the open break",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, app, app.Attendance.EndBreak)
			},
		},
	)

	return cmd
}

func newAttendanceCmd(app *App) *cobra.Command {
	var all bool
	var search, date string

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List attendance records",
		Long: `List your own attendance history. With --all (admin only) list every
employee's records, optionally narrowed by --search and --date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !all {
				if _, err := app.require(domain.RoleEmployee); err != nil {
					return err
				}
				day, err := app.Attendance.Today(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatHistory(day.Records, app.Clock))
				return nil
			}

			if _, err := app.require(domain.RoleAdmin); err != nil {
				return err
			}
			f := domain.AttendanceFilter{Search: search}
			if date != "" {
				d, err := domain.ParseDate(date)
				if err != nil {
					return err
				}
				f.Date = d
			}
			records, err := app.Admin.Attendance(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatAttendance(records, app.Clock))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every employee's records (admin)")
	cmd.Flags().StringVar(&search, "search", "", "Match employee name or ID (with --all)")
	cmd.Flags().StringVar(&date, "date", "", "Only records on this date, YYYY-MM-DD (with --all)")
	return cmd
}
