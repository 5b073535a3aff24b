package purchaseorder

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	purchaseOrderDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/purchaseorder"
)

const (
	StatusPending           = "pending"
	StatusPartiallyReceived = "partially_received"
	StatusReceived          = "received"
	StatusCancelled         = "cancelled"
)

var knownStatuses = map[string]bool{
	StatusPending:           true,
	StatusPartiallyReceived: true,
	StatusReceived:          true,
	StatusCancelled:         true,
}

func IsValidStatus(status string) bool {
	return knownStatuses[status]
}

type PurchaseOrder struct {
	ID        int64     `json:"id"`
	OrderDate time.Time `json:"order_date"`
	Supplier  string    `json:"supplier"`
	Status    string    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []*Line   `json:"lines,omitempty"`
}

// IsReceivable reports whether goods may still be booked against the order.
func (o *PurchaseOrder) IsReceivable() bool {
	return o.Status == StatusPending || o.Status == StatusPartiallyReceived
}

func (o *PurchaseOrder) HasReceipts() bool {
	for _, line := range o.Lines {
		if line.QuantityReceived > 0 {
			return true
		}
	}
	return false
}

type Line struct {
	ID                int64               `json:"id"`
	PurchaseOrderID   int64               `json:"purchase_order_id"`
	InventoryItemID   int64               `json:"inventory_item_id"`
	LineNo            int                 `json:"line_no"`
	QuantityOrdered   int                 `json:"quantity_ordered"`
	QuantityReceived  int                 `json:"quantity_received"`
	UnitPrice         decimal.Decimal     `json:"unit_price"`
	LastPurchasePrice decimal.NullDecimal `json:"last_purchase_price"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (l *Line) Remaining() int {
	return l.QuantityOrdered - l.QuantityReceived
}

func (l *Line) IsFullyReceived() bool {
	return l.QuantityReceived == l.QuantityOrdered
}

// ComputeStatus derives the order status from its lines. Received when every
// line is complete, PartiallyReceived when anything arrived, current otherwise.
// A cancelled order stays cancelled.
func ComputeStatus(lines []*Line, current string) string {
	if current == StatusCancelled || len(lines) == 0 {
		return current
	}
	complete, touched := true, false
	for _, line := range lines {
		if !line.IsFullyReceived() {
			complete = false
		}
		if line.QuantityReceived > 0 {
			touched = true
		}
	}
	switch {
	case complete:
		return StatusReceived
	case touched:
		return StatusPartiallyReceived
	default:
		return current
	}
}

// ReceiptResult is what a successful receipt reports back to the caller.
type ReceiptResult struct {
	Line              *Line  `json:"line"`
	OrderStatus       string `json:"order_status"`
	NewQuantityOnHand int    `json:"new_quantity_on_hand"`
}

var (
	ErrNotFound         = errors.New("purchase order not found")
	ErrLineNotFound     = errors.New("purchase order line not found")
	ErrConcurrentUpdate = errors.New("purchase order changed since it was read")
)

func ToDataModel(o *PurchaseOrder) *purchaseOrderDatamodel.PurchaseOrder {
	return &purchaseOrderDatamodel.PurchaseOrder{
		ID:        o.ID,
		OrderDate: o.OrderDate,
		Supplier:  o.Supplier,
		Status:    o.Status,
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func FromDataModel(o *purchaseOrderDatamodel.PurchaseOrder) *PurchaseOrder {
	return &PurchaseOrder{
		ID:        o.ID,
		OrderDate: o.OrderDate,
		Supplier:  o.Supplier,
		Status:    o.Status,
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func LineToDataModel(l *Line) *purchaseOrderDatamodel.PurchaseOrderLine {
	return &purchaseOrderDatamodel.PurchaseOrderLine{
		ID:                l.ID,
		PurchaseOrderID:   l.PurchaseOrderID,
		InventoryItemID:   l.InventoryItemID,
		LineNo:            l.LineNo,
		QuantityOrdered:   l.QuantityOrdered,
		QuantityReceived:  l.QuantityReceived,
		UnitPrice:         l.UnitPrice,
		LastPurchasePrice: l.LastPurchasePrice,
		UpdatedAt:         l.UpdatedAt,
	}
}

func LineFromDataModel(l *purchaseOrderDatamodel.PurchaseOrderLine) *Line {
	return &Line{
		ID:                l.ID,
		PurchaseOrderID:   l.PurchaseOrderID,
		InventoryItemID:   l.InventoryItemID,
		LineNo:            l.LineNo,
		QuantityOrdered:   l.QuantityOrdered,
		QuantityReceived:  l.QuantityReceived,
		UnitPrice:         l.UnitPrice,
		LastPurchasePrice: l.LastPurchasePrice,
		UpdatedAt:         l.UpdatedAt,
	}
}
