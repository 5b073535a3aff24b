package shift

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
	"github.com/frahmantamala/optical-pos/internal/core/events"
	"github.com/frahmantamala/optical-pos/internal/operator"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

type Repository interface {
	// Create returns ErrShiftAlreadyOpen when the operator already holds an open shift.
	Create(ctx context.Context, shift *Shift) error
	GetByID(ctx context.Context, id int64) (*Shift, error)
	GetOpenByOperator(ctx context.Context, operatorID int64) (*Shift, error)
	ListByOperator(ctx context.Context, operatorID int64, limit int) ([]*Shift, error)
	// Transition moves the shift owned by operatorID from status from to status
	// to. It returns ErrConcurrentUpdate when no row matched.
	Transition(ctx context.Context, id, operatorID int64, from, to string, at time.Time) error
}

type OperatorReader interface {
	GetByID(ctx context.Context, id int64) (*operator.Operator, error)
}

type Service struct {
	repo      Repository
	operators OperatorReader
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, operators OperatorReader, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Service{
		repo:      repo,
		operators: operators,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

func (s *Service) StartNewShift(ctx context.Context, operatorID int64, openingFloat decimal.Decimal) (*Shift, error) {
	if err := validation.ValidateOpeningFloat(openingFloat); err != nil {
		s.log(ctx).Warn("shift opening float rejected", "operator_id", operatorID, "opening_float", openingFloat.String())
		return nil, err
	}

	op, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		if stderrors.Is(err, operator.ErrNotFound) || errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil, errors.NewNotFoundError("operator not found", errors.ErrCodeOperatorNotFound)
		}
		s.log(ctx).Error("failed to load operator for shift", "error", err, "operator_id", operatorID)
		return nil, storageFailure(err)
	}
	if !op.IsActive {
		return nil, errors.ErrOperatorInactive
	}

	existing, err := s.repo.GetOpenByOperator(ctx, operatorID)
	switch {
	case err == nil:
		s.log(ctx).Warn("operator already has an open shift", "operator_id", operatorID, "shift_id", existing.ID)
		return nil, alreadyOpen()
	case !stderrors.Is(err, ErrNotFound):
		s.log(ctx).Error("failed to check open shift", "error", err, "operator_id", operatorID)
		return nil, storageFailure(err)
	}

	shift := NewShift(operatorID, openingFloat, s.now())
	if err := s.repo.Create(ctx, shift); err != nil {
		if stderrors.Is(err, ErrShiftAlreadyOpen) {
			s.log(ctx).Warn("concurrent shift start rejected", "operator_id", operatorID)
			return nil, alreadyOpen()
		}
		s.log(ctx).Error("failed to create shift", "error", err, "operator_id", operatorID)
		return nil, storageFailure(err)
	}
	shift.OperatorName = op.DisplayName

	s.log(ctx).Info("shift started",
		"shift_id", shift.ID,
		"operator_id", operatorID,
		"opening_float", openingFloat.StringFixed(2))
	s.publish(ctx, events.EventTypeShiftStarted, shift)

	return shift, nil
}

func (s *Service) PauseActiveShift(ctx context.Context, shiftID, requestingOperatorID int64) (*Shift, error) {
	return s.transition(ctx, shiftID, requestingOperatorID, StatusActive, StatusPaused, events.EventTypeShiftPaused)
}

func (s *Service) ResumePausedShift(ctx context.Context, shiftID, requestingOperatorID int64) (*Shift, error) {
	return s.transition(ctx, shiftID, requestingOperatorID, StatusPaused, StatusActive, events.EventTypeShiftResumed)
}

// CloseShift ends an active or paused shift. Closed shifts never change again.
func (s *Service) CloseShift(ctx context.Context, shiftID, requestingOperatorID int64) (*Shift, error) {
	current, err := s.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, shiftID, requestingOperatorID, current.Status, StatusClosed, events.EventTypeShiftClosed)
}

func (s *Service) transition(ctx context.Context, shiftID, requestingOperatorID int64, from, to, eventType string) (*Shift, error) {
	current, err := s.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	// ownership first so a foreign operator learns nothing about the status
	if !current.IsOwnedBy(requestingOperatorID) {
		s.log(ctx).Warn("shift transition by non-owner",
			"shift_id", shiftID,
			"owner_id", current.OperatorID,
			"requesting_operator_id", requestingOperatorID)
		return nil, errors.NewShiftOperationError("shift belongs to another operator", errors.ErrCodeShiftNotOwner)
	}

	if current.Status != from || (to == StatusClosed && !current.CanClose()) {
		s.log(ctx).Warn("shift transition from wrong status",
			"shift_id", shiftID,
			"status", current.Status,
			"target", to)
		return nil, errors.NewShiftOperationError("shift is "+current.Status+", cannot move to "+to, errors.ErrCodeShiftInvalidStatus)
	}

	if err := s.repo.Transition(ctx, shiftID, requestingOperatorID, from, to, s.now()); err != nil {
		if stderrors.Is(err, ErrConcurrentUpdate) {
			s.log(ctx).Warn("shift changed during transition", "shift_id", shiftID, "target", to)
			return nil, errors.NewShiftOperationError("shift was changed by another session; reload it", errors.ErrCodeShiftStateChanged)
		}
		s.log(ctx).Error("failed to update shift", "error", err, "shift_id", shiftID, "target", to)
		return nil, storageFailure(err)
	}

	updated, err := s.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("shift status changed", "shift_id", shiftID, "from", from, "to", to)
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *Service) GetShift(ctx context.Context, shiftID int64) (*Shift, error) {
	return s.load(ctx, shiftID)
}

// GetOpenShiftForOperator returns the operator's active or paused shift.
func (s *Service) GetOpenShiftForOperator(ctx context.Context, operatorID int64) (*Shift, error) {
	shift, err := s.repo.GetOpenByOperator(ctx, operatorID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NewNotFoundError("operator has no open shift", errors.ErrCodeShiftNotFound)
		}
		return nil, storageFailure(err)
	}
	return shift, nil
}

func (s *Service) ListShifts(ctx context.Context, operatorID int64, limit int) ([]*Shift, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	shifts, err := s.repo.ListByOperator(ctx, operatorID, limit)
	if err != nil {
		s.log(ctx).Error("failed to list shifts", "error", err, "operator_id", operatorID)
		return nil, storageFailure(err)
	}
	return shifts, nil
}

func (s *Service) load(ctx context.Context, shiftID int64) (*Shift, error) {
	shift, err := s.repo.GetByID(ctx, shiftID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NewNotFoundError("shift not found", errors.ErrCodeShiftNotFound)
		}
		s.log(ctx).Error("failed to load shift", "error", err, "shift_id", shiftID)
		return nil, storageFailure(err)
	}
	return shift, nil
}

func (s *Service) publish(ctx context.Context, eventType string, shift *Shift) {
	event := events.NewShiftEvent(eventType, shift.ID, shift.OperatorID, shift.Status)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("failed to publish shift event", "error", err, "event_type", eventType, "shift_id", shift.ID)
	}
}

func alreadyOpen() error {
	return errors.NewShiftOperationError("operator already has an active or paused shift", errors.ErrCodeShiftAlreadyOpen)
}

func storageFailure(err error) error {
	return errors.NewShiftOperationError("shift storage failed", errors.ErrCodeShiftStorage).WithCause(err)
}
