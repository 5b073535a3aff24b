package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/optical-pos/internal/inventory"
)

var (
	adjustReason   string
	listLimit      int
	lowThreshold   int
	thresholdIsSet bool
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Adjust and inspect stock on hand",
}

func itemBySKU(ctx context.Context, deps *Dependencies, sku string) (*inventory.Item, error) {
	return deps.Inventory.GetItemBySKU(ctx, sku)
}

var stockAdjustCmd = &cobra.Command{
	Use:   "adjust <sku> <delta>",
	Short: "Apply a signed quantity change with a reason",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, op, err := authorize(ctx, deps, deps.Permissions.CanAdjustStock)
		if err != nil {
			return err
		}
		// counter staff adjust during a shift; admins may correct any time
		if !deps.Permissions.IsAdmin(op.Permissions) {
			if _, err := deps.Session.RequireActiveShift(); err != nil {
				return err
			}
		}
		delta, err := parseInt("delta", args[1])
		if err != nil {
			return err
		}
		item, err := itemBySKU(ctx, deps, args[0])
		if err != nil {
			return err
		}
		qty, err := deps.Inventory.AdjustStock(ctx, item.ID, delta, adjustReason, deps.Session.OperatorID())
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d -> %d\n", item.SKU, item.QuantityOnHand, qty)
		return nil
	}),
}

var stockShowCmd = &cobra.Command{
	Use:   "show <sku>",
	Short: "Show an inventory item",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := login(ctx, deps)
		if err != nil {
			return err
		}
		item, err := itemBySKU(ctx, deps, args[0])
		if err != nil {
			return err
		}
		return printJSON(item)
	}),
}

var stockHistoryCmd = &cobra.Command{
	Use:   "history <sku>",
	Short: "Show the audit trail of an item, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := login(ctx, deps)
		if err != nil {
			return err
		}
		item, err := itemBySKU(ctx, deps, args[0])
		if err != nil {
			return err
		}
		mutations, err := deps.Inventory.History(ctx, item.ID, listLimit)
		if err != nil {
			return err
		}
		return printJSON(mutations)
	}),
}

var stockLowCmd = &cobra.Command{
	Use:   "low",
	Short: "List active items at or below the low-stock threshold",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, _, err := login(ctx, deps)
		if err != nil {
			return err
		}
		threshold := deps.Config.Inventory.LowStockThreshold
		if thresholdIsSet {
			threshold = lowThreshold
		}
		items, err := deps.Inventory.LowStock(ctx, threshold)
		if err != nil {
			return err
		}
		return printJSON(items)
	}),
}

var stockDeactivateCmd = &cobra.Command{
	Use:   "deactivate <sku>",
	Short: "Hide an item from sale",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := authorize(ctx, deps, deps.Permissions.IsAdmin)
		if err != nil {
			return err
		}
		item, err := itemBySKU(ctx, deps, args[0])
		if err != nil {
			return err
		}
		if err := deps.Inventory.DeactivateItem(ctx, item.ID); err != nil {
			return err
		}
		fmt.Println("deactivated", item.SKU)
		return nil
	}),
}

func init() {
	stockAdjustCmd.Flags().StringVar(&adjustReason, "reason", "", "why the quantity changes")
	stockHistoryCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")
	stockLowCmd.Flags().IntVar(&lowThreshold, "threshold", 0, "override inventory.low_stock_threshold")
	stockLowCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		thresholdIsSet = cmd.Flags().Changed("threshold")
	}

	stockCmd.AddCommand(stockAdjustCmd)
	stockCmd.AddCommand(stockShowCmd)
	stockCmd.AddCommand(stockHistoryCmd)
	stockCmd.AddCommand(stockLowCmd)
	stockCmd.AddCommand(stockDeactivateCmd)
}
