package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	inventoryDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/inventory"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/inventory"
)

// InventoryRepository implements inventory.Repository using GORM
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

var _ inventory.Repository = (*InventoryRepository)(nil)

func (r *InventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	row := inventory.ToDataModel(item)
	if err := tx.DB(ctx, r.db).Create(row).Error; err != nil {
		if storage.IsUniqueViolation(err) {
			return inventory.ErrDuplicateSKU
		}
		return err
	}
	item.ID = row.ID
	item.CreatedAt = row.CreatedAt
	item.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	return r.first(tx.DB(ctx, r.db).Where("id = ?", id))
}

func (r *InventoryRepository) GetBySKU(ctx context.Context, sku string) (*inventory.Item, error) {
	return r.first(tx.DB(ctx, r.db).Where("sku = ?", sku))
}

// GetForUpdate takes SELECT ... FOR UPDATE on postgres. The sqlite dialect
// drops the locking clause; its single writer serialises the transaction.
func (r *InventoryRepository) GetForUpdate(ctx context.Context, id int64) (*inventory.Item, error) {
	return r.first(tx.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *InventoryRepository) first(query *gorm.DB) (*inventory.Item, error) {
	var row inventoryDatamodel.InventoryItem
	if err := query.First(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, inventory.ErrNotFound
		}
		return nil, err
	}
	return inventory.FromDataModel(&row), nil
}

func (r *InventoryRepository) CompareAndSetQuantity(ctx context.Context, id int64, before, after int, version int64) error {
	result := tx.DB(ctx, r.db).Model(&inventoryDatamodel.InventoryItem{}).
		Where("id = ? AND quantity_on_hand = ? AND version = ?", id, before, version).
		Updates(map[string]interface{}{
			"quantity_on_hand": after,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.ErrConcurrentUpdate
	}
	return nil
}

func (r *InventoryRepository) AppendMutation(ctx context.Context, mutation *inventory.StockMutation) error {
	row := inventory.MutationToDataModel(mutation)
	if err := tx.DB(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	mutation.ID = row.ID
	mutation.CreatedAt = row.CreatedAt
	return nil
}

func (r *InventoryRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result := tx.DB(ctx, r.db).Model(&inventoryDatamodel.InventoryItem{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.ErrNotFound
	}
	return nil
}
