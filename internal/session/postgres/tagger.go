package postgres

import (
	"context"
	"strconv"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sessionDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/session"
	"github.com/frahmantamala/optical-pos/internal/session"
)

const (
	KeyOperator = "app.current_operator_id"
	KeyShift    = "app.current_shift_id"
)

const tagSavepoint = "session_tags"

// ContextTagger exposes the session's operator and shift to the database so
// row-level security policies and triggers can read them.
//
// On postgres the values are applied with set_config(..., true) at the start
// of every transaction (see Apply), so they never outlive the transaction on
// a pooled connection. Statements outside a transaction are not tagged. On
// other dialects the values are stored in session_tags under the instance id.
type ContextTagger struct {
	db       *gorm.DB
	instance string

	mu     sync.RWMutex
	values map[string]string
}

func NewContextTagger(db *gorm.DB, instance string) *ContextTagger {
	return &ContextTagger{
		db:       db,
		instance: instance,
		values:   make(map[string]string, 2),
	}
}

var _ session.Propagator = (*ContextTagger)(nil)

func (t *ContextTagger) PropagateOperator(ctx context.Context, operatorID *int64) error {
	return t.set(ctx, KeyOperator, operatorID)
}

func (t *ContextTagger) PropagateShift(ctx context.Context, shiftID *int64) error {
	return t.set(ctx, KeyShift, shiftID)
}

func (t *ContextTagger) set(ctx context.Context, key string, id *int64) error {
	value := ""
	if id != nil {
		value = strconv.FormatInt(*id, 10)
	}

	t.mu.Lock()
	t.values[key] = value
	t.mu.Unlock()

	if t.db.Dialector.Name() == "postgres" {
		return nil
	}

	return t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "tag_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"tag_value", "updated_at"}),
	}).Create(&sessionDatamodel.SessionTag{InstanceID: t.instance, Key: key, Value: value}).Error
}

// Apply tags the transaction gtx with the current values. It is registered
// as a tx.GormManager begin hook. A failed set_config is rolled back to a
// savepoint so the transaction stays usable.
func (t *ContextTagger) Apply(_ context.Context, gtx *gorm.DB) error {
	if gtx.Dialector.Name() != "postgres" {
		return nil
	}

	t.mu.RLock()
	operatorID, shiftID := t.values[KeyOperator], t.values[KeyShift]
	t.mu.RUnlock()

	if err := gtx.SavePoint(tagSavepoint).Error; err != nil {
		return err
	}
	err := gtx.Exec("SELECT set_config(?, ?, true), set_config(?, ?, true)",
		KeyOperator, operatorID, KeyShift, shiftID).Error
	if err != nil {
		gtx.RollbackTo(tagSavepoint)
		return err
	}
	return nil
}

// Value returns the tag as last propagated by this instance.
func (t *ContextTagger) Value(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[key]
}

// Get reads back the stored tag of this instance on a dialect without
// set_config.
func (t *ContextTagger) Get(ctx context.Context, key string) (string, error) {
	var tag sessionDatamodel.SessionTag
	err := t.db.WithContext(ctx).
		Where("instance_id = ? AND tag_key = ?", t.instance, key).
		First(&tag).Error
	if err != nil {
		return "", err
	}
	return tag.Value, nil
}
