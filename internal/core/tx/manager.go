// Package tx is the unit-of-work boundary shared by the ledger, the shift
// manager and the receiving engine. A transaction opened by an outer call is
// carried in the context and reused by every nested call.
package tx

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	// Nested calls reuse the transaction already in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// BeginHook runs first inside every outermost transaction. A hook error is
// logged and does not abort the transaction.
type BeginHook func(ctx context.Context, gtx *gorm.DB) error

type GormManager struct {
	db      *gorm.DB
	timeout time.Duration
	logger  *slog.Logger
	hooks   []BeginHook
}

var _ Manager = (*GormManager)(nil)

// NewGormManager bounds every outermost transaction by timeout when it is positive.
func NewGormManager(db *gorm.DB, timeout time.Duration, logger *slog.Logger) *GormManager {
	return &GormManager{db: db, timeout: timeout, logger: logger}
}

// OnBegin registers hook. Call it during wiring, before the first transaction.
func (m *GormManager) OnBegin(hook BeginHook) {
	m.hooks = append(m.hooks, hook)
}

func (m *GormManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := m.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		for _, hook := range m.hooks {
			if err := hook(ctx, gtx); err != nil {
				m.logger.Warn("transaction begin hook failed", "error", err)
			}
		}
		return fn(context.WithValue(ctx, txKey{}, gtx))
	})
	if err != nil {
		m.logger.Debug("transaction rolled back", "error", err)
		return err
	}
	return nil
}

// DB returns the transaction carried by ctx, or fallback bound to ctx when
// there is none. Repositories call it for every statement.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if gtx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return gtx
	}
	return fallback.WithContext(ctx)
}

func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
