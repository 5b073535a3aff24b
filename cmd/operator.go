package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/operator"
)

var (
	newUsername    string
	newDisplayName string
	newPassword    string
	newPermissions []string
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operators and their permissions",
}

var operatorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an operator",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, admin, err := authorize(ctx, deps, deps.Permissions.CanManageOperators)
		if err != nil {
			return err
		}
		op, err := deps.Operators.Create(ctx, operator.CreateOperatorDTO{
			Username:    newUsername,
			DisplayName: newDisplayName,
			Password:    newPassword,
			Permissions: newPermissions,
		}, &admin.ID)
		if err != nil {
			return err
		}
		return printJSON(op)
	}),
}

var operatorGrantCmd = &cobra.Command{
	Use:   "grant <operator-id> <permission>",
	Short: "Grant a permission",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, admin, err := authorize(ctx, deps, deps.Permissions.CanManageOperators)
		if err != nil {
			return err
		}
		id, err := parseID("operator_id", args[0])
		if err != nil {
			return err
		}
		if err := deps.Operators.Grant(ctx, id, args[1], admin.ID); err != nil {
			return err
		}
		fmt.Printf("granted %s to operator %d\n", args[1], id)
		return nil
	}),
}

var operatorRevokeCmd = &cobra.Command{
	Use:   "revoke <operator-id> <permission>",
	Short: "Revoke a permission",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := authorize(ctx, deps, deps.Permissions.CanManageOperators)
		if err != nil {
			return err
		}
		id, err := parseID("operator_id", args[0])
		if err != nil {
			return err
		}
		if err := deps.Operators.Revoke(ctx, id, args[1]); err != nil {
			return err
		}
		fmt.Printf("revoked %s from operator %d\n", args[1], id)
		return nil
	}),
}

func setActiveCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <operator-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
			ctx, _, err := authorize(ctx, deps, deps.Permissions.CanManageOperators)
			if err != nil {
				return err
			}
			id, err := parseID("operator_id", args[0])
			if err != nil {
				return err
			}
			if active {
				err = deps.Operators.Activate(ctx, id)
			} else {
				err = deps.Operators.Deactivate(ctx, id)
			}
			if err != nil {
				return err
			}
			fmt.Printf("operator %d %sd\n", id, use)
			return nil
		}),
	}
}

var operatorShowCmd = &cobra.Command{
	Use:   "show [username]",
	Short: "Show an operator, or the logged-in one",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, self, err := login(ctx, deps)
		if err != nil {
			return err
		}
		if len(args) == 0 || args[0] == self.Username {
			return printJSON(deps.Session.CurrentOperator())
		}
		if !deps.Permissions.CanManageOperators(self.Permissions) {
			return internal.NewForbiddenError("operator lacks permission", internal.ErrCodePermissionDenied)
		}
		op, err := deps.Operators.GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(op)
	}),
}

func init() {
	operatorCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	operatorCreateCmd.Flags().StringVar(&newDisplayName, "name", "", "display name")
	operatorCreateCmd.Flags().StringVar(&newPassword, "new-password", "", "initial password")
	operatorCreateCmd.Flags().StringSliceVar(&newPermissions, "perm", nil, "permission to grant, repeatable")

	operatorCmd.AddCommand(operatorCreateCmd)
	operatorCmd.AddCommand(operatorGrantCmd)
	operatorCmd.AddCommand(operatorRevokeCmd)
	operatorCmd.AddCommand(setActiveCommand("activate", "Re-enable an operator", true))
	operatorCmd.AddCommand(setActiveCommand("deactivate", "Disable an operator", false))
	operatorCmd.AddCommand(operatorShowCmd)
}
