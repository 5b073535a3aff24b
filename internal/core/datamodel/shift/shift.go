package shift

import (
	"time"

	"github.com/shopspring/decimal"
)

type Shift struct {
	ID           int64           `gorm:"primaryKey"`
	OperatorID   int64           `gorm:"column:operator_id;not null;index"`
	Status       string          `gorm:"column:status;not null;size:16;index"`
	OpeningFloat decimal.Decimal `gorm:"column:opening_float;type:decimal(14,2);not null"`
	StartedAt    time.Time       `gorm:"column:started_at;not null"`
	PausedAt     *time.Time      `gorm:"column:paused_at"`
	EndedAt      *time.Time      `gorm:"column:ended_at"`
	// OpenGuard holds the operator id while the shift is active or paused and
	// NULL once closed. Its unique index admits one open shift per operator.
	OpenGuard *int64    `gorm:"column:open_guard;uniqueIndex:idx_shifts_open_guard"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shift) TableName() string {
	return "shifts"
}
