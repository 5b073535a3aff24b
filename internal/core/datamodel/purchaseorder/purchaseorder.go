package purchaseorder

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrder struct {
	ID        int64     `gorm:"primaryKey"`
	OrderDate time.Time `gorm:"column:order_date;not null"`
	Supplier  string    `gorm:"column:supplier;not null"`
	Status    string    `gorm:"column:status;not null;size:24;index"`
	CreatedBy int64     `gorm:"column:created_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

type PurchaseOrderLine struct {
	ID                int64               `gorm:"primaryKey"`
	PurchaseOrderID   int64               `gorm:"column:purchase_order_id;not null;uniqueIndex:idx_po_line_no"`
	InventoryItemID   int64               `gorm:"column:inventory_item_id;not null;index"`
	LineNo            int                 `gorm:"column:line_no;not null;uniqueIndex:idx_po_line_no"`
	QuantityOrdered   int                 `gorm:"column:quantity_ordered;not null;check:chk_po_lines_ordered_positive,quantity_ordered > 0"`
	QuantityReceived  int                 `gorm:"column:quantity_received;not null;default:0;check:chk_po_lines_received_bounds,quantity_received >= 0 AND quantity_received <= quantity_ordered"`
	UnitPrice         decimal.Decimal     `gorm:"column:unit_price;type:decimal(14,2);not null"`
	LastPurchasePrice decimal.NullDecimal `gorm:"column:last_purchase_price;type:decimal(14,2)"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}
