package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/purchaseorder"
)

var (
	poSupplier   string
	poLines      []string
	poStatus     string
	receivePrice string
)

var poCmd = &cobra.Command{
	Use:   "po",
	Short: "Create purchase orders and receive deliveries",
}

// parseLine reads "SKU:QUANTITY:UNIT_PRICE".
func parseLine(ctx context.Context, deps *Dependencies, raw string) (purchaseorder.CreateLineDTO, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return purchaseorder.CreateLineDTO{}, internal.NewValidationFieldError("line", fmt.Sprintf("line %q must look like SKU:QTY:PRICE", raw), internal.ErrCodeValidationFailed)
	}
	item, err := deps.Inventory.GetItemBySKU(ctx, strings.ToUpper(strings.TrimSpace(parts[0])))
	if err != nil {
		return purchaseorder.CreateLineDTO{}, err
	}
	qty, err := parseInt("quantity_ordered", parts[1])
	if err != nil {
		return purchaseorder.CreateLineDTO{}, err
	}
	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return purchaseorder.CreateLineDTO{}, internal.NewValidationFieldError("unit_price", "unit price must be a number", internal.ErrCodeInvalidAmount)
	}
	return purchaseorder.CreateLineDTO{InventoryItemID: item.ID, QuantityOrdered: qty, UnitPrice: price}, nil
}

var poCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pending purchase order",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, _, err := authorize(ctx, deps, deps.Permissions.CanManagePurchaseOrders)
		if err != nil {
			return err
		}
		dto := purchaseorder.CreatePurchaseOrderDTO{Supplier: poSupplier}
		for _, raw := range poLines {
			line, err := parseLine(ctx, deps, raw)
			if err != nil {
				return err
			}
			dto.Lines = append(dto.Lines, line)
		}
		order, err := deps.PurchaseOrders.CreateNewPurchaseOrder(ctx, deps.Session, dto)
		if err != nil {
			return err
		}
		return printJSON(order)
	}),
}

var poShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show an order with its lines",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := login(ctx, deps)
		if err != nil {
			return err
		}
		id, err := parseID("order_id", args[0])
		if err != nil {
			return err
		}
		order, err := deps.PurchaseOrders.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(order)
	}),
}

var poListCmd = &cobra.Command{
	Use:   "list",
	Short: "List purchase orders, newest first",
	RunE: run(func(ctx context.Context, deps *Dependencies, _ []string) error {
		ctx, _, err := login(ctx, deps)
		if err != nil {
			return err
		}
		orders, err := deps.PurchaseOrders.ListPurchaseOrders(ctx, poStatus, listLimit)
		if err != nil {
			return err
		}
		return printJSON(orders)
	}),
}

var poReceiveCmd = &cobra.Command{
	Use:   "receive <order-id> <line-id> <quantity>",
	Short: "Book a delivery against one order line",
	Args:  cobra.ExactArgs(3),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := authorize(ctx, deps, deps.Permissions.CanReceiveStock)
		if err != nil {
			return err
		}
		orderID, err := parseID("order_id", args[0])
		if err != nil {
			return err
		}
		lineID, err := parseID("line_id", args[1])
		if err != nil {
			return err
		}
		qty, err := parseInt("quantity", args[2])
		if err != nil {
			return err
		}

		price := decimal.Zero
		if receivePrice != "" {
			if price, err = decimal.NewFromString(receivePrice); err != nil {
				return internal.NewValidationFieldError("unit_price", "unit price must be a number", internal.ErrCodeInvalidAmount)
			}
		} else {
			order, err := deps.PurchaseOrders.GetPurchaseOrder(ctx, orderID)
			if err != nil {
				return err
			}
			for _, line := range order.Lines {
				if line.ID == lineID {
					price = line.UnitPrice
				}
			}
		}

		result, err := deps.PurchaseOrders.ReceiveStockForItem(ctx, deps.Session, lineID, orderID, qty, price)
		if err != nil {
			return err
		}
		return printJSON(result)
	}),
}

var poCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a pending order with nothing received",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, deps *Dependencies, args []string) error {
		ctx, _, err := authorize(ctx, deps, deps.Permissions.CanManagePurchaseOrders)
		if err != nil {
			return err
		}
		id, err := parseID("order_id", args[0])
		if err != nil {
			return err
		}
		order, err := deps.PurchaseOrders.CancelPurchaseOrder(ctx, deps.Session, id)
		if err != nil {
			return err
		}
		return printJSON(order)
	}),
}

func init() {
	poCreateCmd.Flags().StringVar(&poSupplier, "supplier", "", "supplier name")
	poCreateCmd.Flags().StringArrayVar(&poLines, "line", nil, "SKU:QTY:PRICE, repeatable")
	poListCmd.Flags().StringVar(&poStatus, "status", "", "pending, partially_received, received or cancelled")
	poListCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")
	poReceiveCmd.Flags().StringVar(&receivePrice, "price", "", "unit price paid, defaults to the ordered price")

	poCmd.AddCommand(poCreateCmd)
	poCmd.AddCommand(poShowCmd)
	poCmd.AddCommand(poListCmd)
	poCmd.AddCommand(poReceiveCmd)
	poCmd.AddCommand(poCancelCmd)
}
