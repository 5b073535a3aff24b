package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	inventoryDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/inventory"
)

const (
	ReferencePurchaseOrderLine = "purchase_order_line"
	ReferenceInitialStock      = "initial_stock"

	InitialStockReason = "initial stock"
)

type Item struct {
	ID             int64           `json:"id" db:"id"`
	ProductID      int64           `json:"product_id" db:"product_id"`
	SKU            string          `json:"sku" db:"sku"`
	Name           string          `json:"name" db:"name"`
	Attributes     string          `json:"attributes,omitempty" db:"attributes"`
	QuantityOnHand int             `json:"quantity_on_hand" db:"quantity_on_hand"`
	SellingPrice   decimal.Decimal `json:"selling_price" db:"selling_price"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	IsProtected    bool            `json:"is_protected" db:"is_protected"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// StockMutation is one audit entry. QuantityBefore + QuantityDelta always
// equals QuantityAfter.
type StockMutation struct {
	ID              int64     `json:"id" db:"id"`
	InventoryItemID int64     `json:"inventory_item_id" db:"inventory_item_id"`
	ItemName        string    `json:"item_name" db:"item_name"`
	QuantityDelta   int       `json:"quantity_delta" db:"quantity_delta"`
	QuantityBefore  int       `json:"quantity_before" db:"quantity_before"`
	QuantityAfter   int       `json:"quantity_after" db:"quantity_after"`
	Reason          string    `json:"reason" db:"reason"`
	ActorOperatorID *int64    `json:"actor_operator_id,omitempty" db:"actor_operator_id"`
	ReferenceType   *string   `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID     *int64    `json:"reference_id,omitempty" db:"reference_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// StockReceipt is a bounded stock increase booked against a purchase order
// line. The receiving engine checks the bounds before handing it over.
type StockReceipt struct {
	ItemID   int64
	OrderID  int64
	LineID   int64
	Quantity int
	Actor    *int64
}

func (r StockReceipt) Reason() string {
	return fmt.Sprintf("purchase order #%d line #%d", r.OrderID, r.LineID)
}

var (
	ErrNotFound         = errors.New("inventory item not found")
	ErrConcurrentUpdate = errors.New("inventory item changed since it was read")
	ErrDuplicateSKU     = errors.New("sku already exists")
)

func ToDataModel(i *Item) *inventoryDatamodel.InventoryItem {
	return &inventoryDatamodel.InventoryItem{
		ID:             i.ID,
		ProductID:      i.ProductID,
		SKU:            i.SKU,
		Name:           i.Name,
		Attributes:     i.Attributes,
		QuantityOnHand: i.QuantityOnHand,
		SellingPrice:   i.SellingPrice,
		IsActive:       i.IsActive,
		IsProtected:    i.IsProtected,
		Version:        i.Version,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func FromDataModel(i *inventoryDatamodel.InventoryItem) *Item {
	return &Item{
		ID:             i.ID,
		ProductID:      i.ProductID,
		SKU:            i.SKU,
		Name:           i.Name,
		Attributes:     i.Attributes,
		QuantityOnHand: i.QuantityOnHand,
		SellingPrice:   i.SellingPrice,
		IsActive:       i.IsActive,
		IsProtected:    i.IsProtected,
		Version:        i.Version,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func MutationToDataModel(m *StockMutation) *inventoryDatamodel.StockMutation {
	return &inventoryDatamodel.StockMutation{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		ItemName:        m.ItemName,
		QuantityDelta:   m.QuantityDelta,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		Reason:          m.Reason,
		ActorOperatorID: m.ActorOperatorID,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		CreatedAt:       m.CreatedAt,
	}
}

func MutationFromDataModel(m *inventoryDatamodel.StockMutation) *StockMutation {
	return &StockMutation{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		ItemName:        m.ItemName,
		QuantityDelta:   m.QuantityDelta,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		Reason:          m.Reason,
		ActorOperatorID: m.ActorOperatorID,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		CreatedAt:       m.CreatedAt,
	}
}
