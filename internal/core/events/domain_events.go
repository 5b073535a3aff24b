package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeShiftStarted           = "shift.started"
	EventTypeShiftPaused            = "shift.paused"
	EventTypeShiftResumed           = "shift.resumed"
	EventTypeShiftClosed            = "shift.closed"
	EventTypeStockMutated           = "stock.mutated"
	EventTypePurchaseOrderCreated   = "purchase_order.created"
	EventTypePurchaseOrderReceived  = "purchase_order.received"
	EventTypePurchaseOrderCancelled = "purchase_order.cancelled"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type ShiftEvent struct {
	BaseEvent
	ShiftID    int64  `json:"shift_id"`
	OperatorID int64  `json:"operator_id"`
	Status     string `json:"status"`
}

func NewShiftEvent(eventType string, shiftID, operatorID int64, status string) *ShiftEvent {
	return &ShiftEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"shift_id":    shiftID,
			"operator_id": operatorID,
			"status":      status,
		}),
		ShiftID:    shiftID,
		OperatorID: operatorID,
		Status:     status,
	}
}

type StockMutatedEvent struct {
	BaseEvent
	InventoryItemID int64  `json:"inventory_item_id"`
	Delta           int    `json:"delta"`
	QuantityBefore  int    `json:"quantity_before"`
	QuantityAfter   int    `json:"quantity_after"`
	Reason          string `json:"reason"`
}

func NewStockMutatedEvent(itemID int64, delta, before, after int, reason string) *StockMutatedEvent {
	return &StockMutatedEvent{
		BaseEvent: newBase(EventTypeStockMutated, map[string]interface{}{
			"inventory_item_id": itemID,
			"delta":             delta,
			"quantity_before":   before,
			"quantity_after":    after,
			"reason":            reason,
		}),
		InventoryItemID: itemID,
		Delta:           delta,
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          reason,
	}
}

type PurchaseOrderReceivedEvent struct {
	BaseEvent
	PurchaseOrderID  int64  `json:"purchase_order_id"`
	LineID           int64  `json:"line_id"`
	QuantityReceived int    `json:"quantity_received"`
	OrderStatus      string `json:"order_status"`
}

func NewPurchaseOrderReceivedEvent(orderID, lineID int64, quantity int, status string) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseEvent: newBase(EventTypePurchaseOrderReceived, map[string]interface{}{
			"purchase_order_id": orderID,
			"line_id":           lineID,
			"quantity_received": quantity,
			"order_status":      status,
		}),
		PurchaseOrderID:  orderID,
		LineID:           lineID,
		QuantityReceived: quantity,
		OrderStatus:      status,
	}
}

// PurchaseOrderEvent covers order-level changes other than receipts.
type PurchaseOrderEvent struct {
	BaseEvent
	PurchaseOrderID int64  `json:"purchase_order_id"`
	OperatorID      int64  `json:"operator_id"`
	Status          string `json:"status"`
}

func NewPurchaseOrderEvent(eventType string, orderID, operatorID int64, status string) *PurchaseOrderEvent {
	return &PurchaseOrderEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"purchase_order_id": orderID,
			"operator_id":       operatorID,
			"status":            status,
		}),
		PurchaseOrderID: orderID,
		OperatorID:      operatorID,
		Status:          status,
	}
}
