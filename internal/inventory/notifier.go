package inventory

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/optical-pos/internal/core/events"
)

// LowStockNotifier warns when a mutation leaves an item at or below the
// configured threshold.
type LowStockNotifier struct {
	threshold int
	logger    *slog.Logger
	alert     func(ctx context.Context, itemID int64, quantity int)
}

func NewLowStockNotifier(threshold int, logger *slog.Logger) *LowStockNotifier {
	n := &LowStockNotifier{threshold: threshold, logger: logger}
	n.alert = n.logAlert
	return n
}

// OnAlert replaces the default log line, for example with a UI toast.
func (n *LowStockNotifier) OnAlert(fn func(ctx context.Context, itemID int64, quantity int)) {
	n.alert = fn
}

func (n *LowStockNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeStockMutated, n.Handle)
}

func (n *LowStockNotifier) Handle(ctx context.Context, event events.Event) error {
	mutated, ok := event.(*events.StockMutatedEvent)
	if !ok {
		return nil
	}
	if mutated.Delta >= 0 || mutated.QuantityAfter > n.threshold {
		return nil
	}
	n.alert(ctx, mutated.InventoryItemID, mutated.QuantityAfter)
	return nil
}

func (n *LowStockNotifier) logAlert(_ context.Context, itemID int64, quantity int) {
	n.logger.Warn("inventory item is low on stock",
		"item_id", itemID,
		"quantity_on_hand", quantity,
		"threshold", n.threshold)
}
