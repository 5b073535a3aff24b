package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	shiftDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/shift"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/shift"
)

// ShiftRepository implements shift.Repository using GORM. The open_guard
// unique index is what keeps a second open shift out, not the pre-read in the
// service.
type ShiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

var _ shift.Repository = (*ShiftRepository)(nil)

type shiftWithOperator struct {
	shiftDatamodel.Shift `gorm:"embedded"`
	OperatorName         string `gorm:"column:operator_name"`
}

func (r *ShiftRepository) query(ctx context.Context) *gorm.DB {
	return tx.DB(ctx, r.db).
		Table("shifts").
		Select("shifts.*, operators.display_name AS operator_name").
		Joins("LEFT JOIN operators ON operators.id = shifts.operator_id")
}

func toDomain(row *shiftWithOperator) *shift.Shift {
	s := shift.FromDataModel(&row.Shift)
	s.OperatorName = row.OperatorName
	return s
}

func (r *ShiftRepository) Create(ctx context.Context, s *shift.Shift) error {
	row := shift.ToDataModel(s)
	if err := tx.DB(ctx, r.db).Create(row).Error; err != nil {
		if storage.IsUniqueViolation(err) {
			return shift.ErrShiftAlreadyOpen
		}
		return err
	}
	s.ID = row.ID
	s.CreatedAt = row.CreatedAt
	s.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ShiftRepository) GetByID(ctx context.Context, id int64) (*shift.Shift, error) {
	var row shiftWithOperator
	if err := r.query(ctx).Where("shifts.id = ?", id).Take(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, shift.ErrNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *ShiftRepository) GetOpenByOperator(ctx context.Context, operatorID int64) (*shift.Shift, error) {
	var row shiftWithOperator
	err := r.query(ctx).
		Where("shifts.operator_id = ? AND shifts.status IN ?", operatorID, []string{shift.StatusActive, shift.StatusPaused}).
		Take(&row).Error
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, shift.ErrNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *ShiftRepository) ListByOperator(ctx context.Context, operatorID int64, limit int) ([]*shift.Shift, error) {
	var rows []*shiftWithOperator
	err := r.query(ctx).
		Where("shifts.operator_id = ?", operatorID).
		Order("shifts.started_at DESC, shifts.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*shift.Shift, len(rows))
	for i, row := range rows {
		result[i] = toDomain(row)
	}
	return result, nil
}

// Transition is a compare-and-set on (id, operator_id, status).
func (r *ShiftRepository) Transition(ctx context.Context, id, operatorID int64, from, to string, at time.Time) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case shift.StatusPaused:
		updates["paused_at"] = at
	case shift.StatusClosed:
		updates["ended_at"] = at
		updates["open_guard"] = nil
	}

	result := tx.DB(ctx, r.db).Model(&shiftDatamodel.Shift{}).
		Where("id = ? AND operator_id = ? AND status = ?", id, operatorID, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shift.ErrConcurrentUpdate
	}
	return nil
}
