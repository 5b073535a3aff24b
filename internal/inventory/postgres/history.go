package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/optical-pos/internal/inventory"
)

// HistoryReader runs the reporting queries with sqlx over the same pool gorm
// uses. It never writes.
type HistoryReader struct {
	db *sqlx.DB
}

func NewHistoryReader(db *sqlx.DB) *HistoryReader {
	return &HistoryReader{db: db}
}

// NewHistoryReaderFromGorm shares the gorm connection pool.
func NewHistoryReaderFromGorm(db *gorm.DB) (*HistoryReader, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	driverName := "pgx"
	if db.Dialector.Name() == "sqlite" {
		driverName = "sqlite3"
	}
	return NewHistoryReader(sqlx.NewDb(sqlDB, driverName)), nil
}

var _ inventory.HistoryReader = (*HistoryReader)(nil)

const historyQuery = `
SELECT id, inventory_item_id, item_name, quantity_delta, quantity_before, quantity_after,
       reason, actor_operator_id, reference_type, reference_id, created_at
FROM stock_mutations
WHERE inventory_item_id = ?
ORDER BY id DESC
LIMIT ?`

func (h *HistoryReader) History(ctx context.Context, itemID int64, limit int) ([]*inventory.StockMutation, error) {
	mutations := []*inventory.StockMutation{}
	if err := h.db.SelectContext(ctx, &mutations, h.db.Rebind(historyQuery), itemID, limit); err != nil {
		return nil, fmt.Errorf("stock history query: %w", err)
	}
	return mutations, nil
}

const lowStockQuery = `
SELECT id, product_id, sku, name, attributes, quantity_on_hand, selling_price,
       is_active, is_protected, version, created_at, updated_at
FROM inventory_items
WHERE is_active = ? AND quantity_on_hand <= ?
ORDER BY quantity_on_hand ASC, sku ASC
LIMIT ?`

func (h *HistoryReader) LowStock(ctx context.Context, threshold, limit int) ([]*inventory.Item, error) {
	items := []*inventory.Item{}
	if err := h.db.SelectContext(ctx, &items, h.db.Rebind(lowStockQuery), true, threshold, limit); err != nil {
		return nil, fmt.Errorf("low stock query: %w", err)
	}
	return items, nil
}
