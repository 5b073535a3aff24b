package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/optical-pos/internal"
	inventoryDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/inventory"
	purchaseOrderDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/purchaseorder"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/inventory"
	"github.com/frahmantamala/optical-pos/internal/operator"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin, a cashier and demo stock for development and testing purposes.`,
	RunE:  run(runSeed),
}

const seedPassword = "password123"

func runSeed(ctx context.Context, deps *Dependencies, _ []string) error {
	if err := storage.AutoMigrate(deps.DB.WithContext(ctx)); err != nil {
		return err
	}
	if err := deps.Operators.EnsurePermissions(ctx); err != nil {
		return err
	}

	if clearData {
		for _, model := range []interface{}{
			&purchaseOrderDatamodel.PurchaseOrderLine{},
			&purchaseOrderDatamodel.PurchaseOrder{},
			&inventoryDatamodel.StockMutation{},
			&inventoryDatamodel.InventoryItem{},
		} {
			if err := deps.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}
		fmt.Println("cleared stock and purchase orders")
	}

	operators := []operator.CreateOperatorDTO{
		{Username: "admin", DisplayName: "Store Admin", Password: seedPassword, Permissions: []string{operator.PermissionAdmin}},
		{Username: "kasir", DisplayName: "Kasir Depan", Password: seedPassword, Permissions: []string{operator.PermissionOperateTill, operator.PermissionAdjustStock}},
		{Username: "gudang", DisplayName: "Staf Gudang", Password: seedPassword, Permissions: []string{operator.PermissionReceiveStock, operator.PermissionManagePurchaseOrders}},
	}
	for _, dto := range operators {
		op, err := deps.Operators.Create(ctx, dto, nil)
		switch {
		case err == nil:
			fmt.Println("Seeded operator:", op.Username)
		case internal.HasCode(err, internal.ErrCodeDuplicateUsername):
			fmt.Println("operator already exists:", dto.Username)
		default:
			return err
		}
	}

	items := []inventory.CreateItemDTO{
		{ProductID: 1, SKU: "FR-TI-001", Name: "Titanium frame black", InitialQuantity: 12, SellingPrice: decimal.RequireFromString("950000")},
		{ProductID: 2, SKU: "FR-AC-014", Name: "Acetate frame tortoise", InitialQuantity: 8, SellingPrice: decimal.RequireFromString("650000")},
		{ProductID: 3, SKU: "LN-156-AR", Name: "Lens 1.56 anti-reflective", Attributes: "index=1.56;coating=AR", InitialQuantity: 40, SellingPrice: decimal.RequireFromString("300000")},
		{ProductID: 4, SKU: "LN-167-BB", Name: "Lens 1.67 blue block", Attributes: "index=1.67;coating=BB", InitialQuantity: 4, SellingPrice: decimal.RequireFromString("750000")},
		{ProductID: 5, SKU: "CL-MONTHLY", Name: "Contact lens monthly", InitialQuantity: 30, SellingPrice: decimal.RequireFromString("180000")},
		{ProductID: 6, SKU: "SVC-EYE-TEST", Name: "Eye examination", SellingPrice: decimal.RequireFromString("50000"), IsProtected: true},
	}
	for _, dto := range items {
		item, err := deps.Inventory.CreateItem(ctx, dto, nil)
		switch {
		case err == nil:
			fmt.Printf("Seeded item: %s (%d on hand)\n", item.SKU, item.QuantityOnHand)
		case internal.HasCode(err, internal.ErrCodeDuplicateSKU):
			fmt.Println("item already exists:", dto.SKU)
		default:
			return err
		}
	}

	fmt.Printf("Seed complete. Operators log in with password %q.\n", seedPassword)
	return nil
}
