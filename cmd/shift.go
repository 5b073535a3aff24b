package cmd

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/shift"
)

var openingFloat string

var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Start, pause, resume and close cashier shifts",
}

var shiftStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a shift for the logged-in operator",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, op, err := authorize(ctx, deps, deps.Permissions.CanOperateTill)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(openingFloat)
		if err != nil {
			return internal.NewValidationFieldError("opening_float", "opening float must be a number", internal.ErrCodeInvalidAmount)
		}
		started, err := deps.Shifts.StartNewShift(ctx, op.ID, amount)
		if err != nil {
			return err
		}
		deps.Session.SetActiveShift(ctx, started.Ref())
		return printJSON(started)
	}),
}

// shiftTransition runs fn against the operator's open shift and stores the
// outcome in the session.
func shiftTransition(use, short string, fn func(s *shift.Service) func(context.Context, int64, int64) (*shift.Shift, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
			ctx, op, err := login(ctx, deps)
			if err != nil {
				return err
			}
			ref := deps.Session.ActiveShift()
			if ref == nil {
				return internal.ErrShiftRequired
			}
			updated, err := fn(deps.Shifts)(ctx, ref.ID, op.ID)
			if err != nil {
				return err
			}
			if updated.IsOpen() {
				deps.Session.SetActiveShift(ctx, updated.Ref())
			} else {
				deps.Session.SetActiveShift(ctx, nil)
			}
			return printJSON(updated)
		}),
	}
}

var shiftCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the logged-in operator's open shift",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, op, err := login(ctx, deps)
		if err != nil {
			return err
		}
		open, err := deps.Shifts.GetOpenShiftForOperator(ctx, op.ID)
		if err != nil {
			return err
		}
		return printJSON(open)
	}),
}

var shiftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the logged-in operator's recent shifts",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, op, err := login(ctx, deps)
		if err != nil {
			return err
		}
		shifts, err := deps.Shifts.ListShifts(ctx, op.ID, listLimit)
		if err != nil {
			return err
		}
		return printJSON(shifts)
	}),
}

func init() {
	shiftStartCmd.Flags().StringVar(&openingFloat, "float", "0", "opening cash float")
	shiftListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum rows")

	shiftCmd.AddCommand(shiftStartCmd)
	shiftCmd.AddCommand(shiftTransition("pause", "Pause the active shift", func(s *shift.Service) func(context.Context, int64, int64) (*shift.Shift, error) {
		return s.PauseActiveShift
	}))
	shiftCmd.AddCommand(shiftTransition("resume", "Resume the paused shift", func(s *shift.Service) func(context.Context, int64, int64) (*shift.Shift, error) {
		return s.ResumePausedShift
	}))
	shiftCmd.AddCommand(shiftTransition("close", "Close the open shift", func(s *shift.Service) func(context.Context, int64, int64) (*shift.Shift, error) {
		return s.CloseShift
	}))
	shiftCmd.AddCommand(shiftCurrentCmd)
	shiftCmd.AddCommand(shiftListCmd)
}
