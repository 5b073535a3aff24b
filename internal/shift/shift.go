package shift

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	shiftDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/shift"
	"github.com/frahmantamala/optical-pos/internal/session"
)

const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

type Shift struct {
	ID           int64           `json:"id"`
	OperatorID   int64           `json:"operator_id"`
	OperatorName string          `json:"operator_name"`
	Status       string          `json:"status"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	StartedAt    time.Time       `json:"started_at"`
	PausedAt     *time.Time      `json:"paused_at,omitempty"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (s *Shift) IsOpen() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}

func (s *Shift) IsOwnedBy(operatorID int64) bool {
	return s.OperatorID == operatorID
}

func (s *Shift) CanPause() bool {
	return s.Status == StatusActive
}

func (s *Shift) CanResume() bool {
	return s.Status == StatusPaused
}

func (s *Shift) CanClose() bool {
	return s.IsOpen()
}

// Ref is the value stored in the session for this shift.
func (s *Shift) Ref() *session.ShiftRef {
	return &session.ShiftRef{ID: s.ID, OperatorID: s.OperatorID, Status: s.Status}
}

func NewShift(operatorID int64, openingFloat decimal.Decimal, now time.Time) *Shift {
	return &Shift{
		OperatorID:   operatorID,
		Status:       StatusActive,
		OpeningFloat: openingFloat,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var (
	ErrNotFound         = errors.New("shift not found")
	ErrShiftAlreadyOpen = errors.New("operator already has an open shift")
	ErrConcurrentUpdate = errors.New("shift changed since it was read")
)

func ToDataModel(s *Shift) *shiftDatamodel.Shift {
	row := &shiftDatamodel.Shift{
		ID:           s.ID,
		OperatorID:   s.OperatorID,
		Status:       s.Status,
		OpeningFloat: s.OpeningFloat,
		StartedAt:    s.StartedAt,
		PausedAt:     s.PausedAt,
		EndedAt:      s.EndedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.IsOpen() {
		guard := s.OperatorID
		row.OpenGuard = &guard
	}
	return row
}

func FromDataModel(s *shiftDatamodel.Shift) *Shift {
	return &Shift{
		ID:           s.ID,
		OperatorID:   s.OperatorID,
		Status:       s.Status,
		OpeningFloat: s.OpeningFloat,
		StartedAt:    s.StartedAt,
		PausedAt:     s.PausedAt,
		EndedAt:      s.EndedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
