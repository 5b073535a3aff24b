package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	operatorDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/operator"
	"github.com/frahmantamala/optical-pos/internal/core/storage"
	"github.com/frahmantamala/optical-pos/internal/core/tx"
	"github.com/frahmantamala/optical-pos/internal/operator"
)

// OperatorRepository implements operator.Repository using GORM
type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

var _ operator.Repository = (*OperatorRepository)(nil)

func (r *OperatorRepository) Create(ctx context.Context, op *operator.Operator) error {
	row := operator.ToDataModel(op)
	if err := tx.DB(ctx, r.db).Create(row).Error; err != nil {
		if storage.IsUniqueViolation(err) {
			return operator.ErrUsernameTaken
		}
		return err
	}
	op.ID = row.ID
	op.CreatedAt = row.CreatedAt
	op.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *OperatorRepository) GetByID(ctx context.Context, id int64) (*operator.Operator, error) {
	var row operatorDatamodel.Operator
	if err := tx.DB(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, operator.ErrNotFound
		}
		return nil, err
	}
	return r.withPermissions(ctx, &row)
}

func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*operator.Operator, error) {
	var row operatorDatamodel.Operator
	if err := tx.DB(ctx, r.db).Where("username = ?", username).First(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, operator.ErrNotFound
		}
		return nil, err
	}
	return r.withPermissions(ctx, &row)
}

func (r *OperatorRepository) withPermissions(ctx context.Context, row *operatorDatamodel.Operator) (*operator.Operator, error) {
	permissions, err := r.permissionNames(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return operator.FromDataModelWithPermissions(row, permissions), nil
}

func (r *OperatorRepository) permissionNames(ctx context.Context, operatorID int64) ([]string, error) {
	names := []string{}
	err := tx.DB(ctx, r.db).
		Table("permissions").
		Joins("JOIN operator_permissions ON operator_permissions.permission_id = permissions.id").
		Where("operator_permissions.operator_id = ?", operatorID).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error
	return names, err
}

func (r *OperatorRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result := tx.DB(ctx, r.db).Model(&operatorDatamodel.Operator{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return operator.ErrNotFound
	}
	return nil
}

func (r *OperatorRepository) EnsurePermission(ctx context.Context, name, description string) error {
	row := operatorDatamodel.Permission{Name: name, Description: description}
	return tx.DB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&row).Error
}

func (r *OperatorRepository) permissionID(ctx context.Context, name string) (int64, error) {
	var row operatorDatamodel.Permission
	if err := tx.DB(ctx, r.db).Where("name = ?", name).First(&row).Error; err != nil {
		if storage.IsNotFound(err) {
			return 0, operator.ErrPermissionNotFound
		}
		return 0, err
	}
	return row.ID, nil
}

func (r *OperatorRepository) exists(ctx context.Context, operatorID int64) error {
	var count int64
	if err := tx.DB(ctx, r.db).Model(&operatorDatamodel.Operator{}).Where("id = ?", operatorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return operator.ErrNotFound
	}
	return nil
}

// GrantPermission is idempotent: granting a held permission is a no-op.
func (r *OperatorRepository) GrantPermission(ctx context.Context, operatorID int64, permission string, grantedBy *int64) error {
	if err := r.exists(ctx, operatorID); err != nil {
		return err
	}
	permissionID, err := r.permissionID(ctx, permission)
	if err != nil {
		return err
	}
	row := operatorDatamodel.OperatorPermission{
		OperatorID:   operatorID,
		PermissionID: permissionID,
		GrantedBy:    grantedBy,
	}
	return tx.DB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "operator_id"}, {Name: "permission_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *OperatorRepository) RevokePermission(ctx context.Context, operatorID int64, permission string) error {
	if err := r.exists(ctx, operatorID); err != nil {
		return err
	}
	permissionID, err := r.permissionID(ctx, permission)
	if err != nil {
		return err
	}
	return tx.DB(ctx, r.db).
		Where("operator_id = ? AND permission_id = ?", operatorID, permissionID).
		Delete(&operatorDatamodel.OperatorPermission{}).Error
}

func (r *OperatorRepository) HasPermission(ctx context.Context, operatorID int64, permission string) (bool, error) {
	var count int64
	err := tx.DB(ctx, r.db).
		Table("operator_permissions").
		Joins("JOIN permissions ON permissions.id = operator_permissions.permission_id").
		Where("operator_permissions.operator_id = ? AND permissions.name = ?", operatorID, permission).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
