package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID             int64           `gorm:"primaryKey"`
	ProductID      int64           `gorm:"column:product_id;not null;index"`
	SKU            string          `gorm:"column:sku;uniqueIndex;not null;size:64"`
	Name           string          `gorm:"column:name;not null"`
	Attributes     string          `gorm:"column:attributes"`
	QuantityOnHand int             `gorm:"column:quantity_on_hand;not null;default:0;check:chk_inventory_items_qty_non_negative,quantity_on_hand >= 0"`
	SellingPrice   decimal.Decimal `gorm:"column:selling_price;type:decimal(14,2);not null"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	IsProtected    bool            `gorm:"column:is_protected;not null;default:false"`
	Version        int64           `gorm:"column:version;not null;default:1"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// StockMutation is append-only. Rows are never updated or deleted.
type StockMutation struct {
	ID              int64     `gorm:"primaryKey"`
	InventoryItemID int64     `gorm:"column:inventory_item_id;not null;index"`
	ItemName        string    `gorm:"column:item_name;not null"`
	QuantityDelta   int       `gorm:"column:quantity_delta;not null"`
	QuantityBefore  int       `gorm:"column:quantity_before;not null"`
	QuantityAfter   int       `gorm:"column:quantity_after;not null"`
	Reason          string    `gorm:"column:reason;not null"`
	ActorOperatorID *int64    `gorm:"column:actor_operator_id"`
	ReferenceType   *string   `gorm:"column:reference_type;size:32"`
	ReferenceID     *int64    `gorm:"column:reference_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (StockMutation) TableName() string {
	return "stock_mutations"
}
