package postgres

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	purchaseOrderDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/purchaseorder"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/purchaseorder"
)

// PurchaseOrderRepository implements purchaseorder.Repository using GORM
type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

var _ purchaseorder.Repository = (*PurchaseOrderRepository)(nil)

func (r *PurchaseOrderRepository) Create(ctx context.Context, order *purchaseorder.PurchaseOrder) error {
	db := tx.DB(ctx, r.db)
	header := purchaseorder.ToDataModel(order)
	if err := db.Create(header).Error; err != nil {
		return err
	}
	order.ID = header.ID
	order.CreatedAt = header.CreatedAt
	order.UpdatedAt = header.UpdatedAt

	if len(order.Lines) == 0 {
		return nil
	}
	rows := make([]*purchaseOrderDatamodel.PurchaseOrderLine, len(order.Lines))
	for i, line := range order.Lines {
		line.PurchaseOrderID = order.ID
		rows[i] = purchaseorder.LineToDataModel(line)
	}
	if err := db.Create(&rows).Error; err != nil {
		return err
	}
	for i, row := range rows {
		order.Lines[i].ID = row.ID
		order.Lines[i].UpdatedAt = row.UpdatedAt
	}
	return nil
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*purchaseorder.PurchaseOrder, error) {
	order, err := r.header(tx.DB(ctx, r.db), id)
	if err != nil {
		return nil, err
	}
	lines, err := r.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *PurchaseOrderRepository) GetForUpdate(ctx context.Context, id int64) (*purchaseorder.PurchaseOrder, error) {
	return r.header(tx.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *PurchaseOrderRepository) header(db *gorm.DB, id int64) (*purchaseorder.PurchaseOrder, error) {
	var row purchaseOrderDatamodel.PurchaseOrder
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, purchaseorder.ErrNotFound
		}
		return nil, err
	}
	return purchaseorder.FromDataModel(&row), nil
}

func (r *PurchaseOrderRepository) GetLineForUpdate(ctx context.Context, orderID, lineID int64) (*purchaseorder.Line, error) {
	var row purchaseOrderDatamodel.PurchaseOrderLine
	err := tx.DB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND purchase_order_id = ?", lineID, orderID).
		First(&row).Error
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, purchaseorder.ErrLineNotFound
		}
		return nil, err
	}
	return purchaseorder.LineFromDataModel(&row), nil
}

func (r *PurchaseOrderRepository) ListLines(ctx context.Context, orderID int64) ([]*purchaseorder.Line, error) {
	var rows []purchaseOrderDatamodel.PurchaseOrderLine
	if err := tx.DB(ctx, r.db).Where("purchase_order_id = ?", orderID).Order("line_no ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]*purchaseorder.Line, len(rows))
	for i := range rows {
		lines[i] = purchaseorder.LineFromDataModel(&rows[i])
	}
	return lines, nil
}

func (r *PurchaseOrderRepository) List(ctx context.Context, status string, limit int) ([]*purchaseorder.PurchaseOrder, error) {
	query := tx.DB(ctx, r.db).Order("id DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []purchaseOrderDatamodel.PurchaseOrder
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]*purchaseorder.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = purchaseorder.FromDataModel(&rows[i])
	}
	return orders, nil
}

func (r *PurchaseOrderRepository) UpdateLineReceipt(ctx context.Context, lineID int64, previousReceived, received int, price decimal.Decimal) error {
	result := tx.DB(ctx, r.db).Model(&purchaseOrderDatamodel.PurchaseOrderLine{}).
		Where("id = ? AND quantity_received = ?", lineID, previousReceived).
		Updates(map[string]interface{}{
			"quantity_received":   received,
			"last_purchase_price": decimal.NewNullDecimal(price),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return purchaseorder.ErrConcurrentUpdate
	}
	return nil
}

func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to string) error {
	result := tx.DB(ctx, r.db).Model(&purchaseOrderDatamodel.PurchaseOrder{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return purchaseorder.ErrConcurrentUpdate
	}
	return nil
}
