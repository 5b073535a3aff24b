// Package session holds who is logged in on this workstation and which shift
// they are running. One Session is created per running instance and handed to
// the services that gate on it.
package session

import (
	"context"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/operator"
)

const shiftStatusActive = "active"

// ShiftRef is the session's view of a shift. Status uses the shift package's
// status strings.
type ShiftRef struct {
	ID         int64
	OperatorID int64
	Status     string
}

// Propagator forwards session changes to the storage layer, for example to
// tag connections for row-level security. A nil id means cleared.
type Propagator interface {
	PropagateOperator(ctx context.Context, operatorID *int64) error
	PropagateShift(ctx context.Context, shiftID *int64) error
}

type Session struct {
	mu         sync.RWMutex
	operator   *operator.Operator
	shift      *ShiftRef
	propagator Propagator
	logger     *slog.Logger
}

// New returns an empty session. propagator may be nil.
func New(propagator Propagator, logger *slog.Logger) *Session {
	return &Session{
		propagator: propagator,
		logger:     logger,
	}
}

// SetCurrentOperator replaces the operator; nil logs out. The active shift is
// left alone and must be cleared with SetActiveShift.
func (s *Session) SetCurrentOperator(ctx context.Context, op *operator.Operator) {
	var id *int64
	s.mu.Lock()
	if op == nil {
		s.operator = nil
	} else {
		copied := *op
		copied.Permissions = append([]string(nil), op.Permissions...)
		s.operator = &copied
		id = &copied.ID
	}
	s.mu.Unlock()

	if s.propagator == nil {
		return
	}
	if err := s.propagator.PropagateOperator(ctx, id); err != nil {
		s.logger.Warn("failed to propagate operator to storage context", "error", err, "operator_id", id)
	}
}

func (s *Session) SetActiveShift(ctx context.Context, ref *ShiftRef) {
	var id *int64
	s.mu.Lock()
	if ref == nil {
		s.shift = nil
	} else {
		copied := *ref
		s.shift = &copied
		id = &copied.ID
	}
	s.mu.Unlock()

	if s.propagator == nil {
		return
	}
	if err := s.propagator.PropagateShift(ctx, id); err != nil {
		s.logger.Warn("failed to propagate shift to storage context", "error", err, "shift_id", id)
	}
}

func (s *Session) IsOperatorPresent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operator != nil
}

// IsShiftActive is false for a paused shift.
func (s *Session) IsShiftActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shift != nil && s.shift.Status == shiftStatusActive
}

// CurrentOperator returns a copy of the logged-in operator, or nil.
func (s *Session) CurrentOperator() *operator.Operator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.operator == nil {
		return nil
	}
	copied := *s.operator
	copied.Permissions = append([]string(nil), s.operator.Permissions...)
	return &copied
}

// OperatorID returns the logged-in operator's id, or nil when nobody is.
func (s *Session) OperatorID() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.operator == nil {
		return nil
	}
	id := s.operator.ID
	return &id
}

func (s *Session) ActiveShift() *ShiftRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shift == nil {
		return nil
	}
	copied := *s.shift
	return &copied
}

func (s *Session) RequireOperator() (*operator.Operator, error) {
	op := s.CurrentOperator()
	if op == nil {
		return nil, errors.ErrOperatorRequired
	}
	return op, nil
}

// RequirePermission passes for admins and for holders of permission.
func (s *Session) RequirePermission(permission string) (*operator.Operator, error) {
	op, err := s.RequireOperator()
	if err != nil {
		return nil, err
	}
	if !op.HasAnyPermission([]string{permission, operator.PermissionAdmin}) {
		return nil, errors.NewForbiddenError("operator lacks permission "+permission, errors.ErrCodePermissionDenied)
	}
	return op, nil
}

func (s *Session) RequireActiveShift() (*ShiftRef, error) {
	if !s.IsOperatorPresent() {
		return nil, errors.ErrOperatorRequired
	}
	if !s.IsShiftActive() {
		return nil, errors.ErrShiftRequired
	}
	return s.ActiveShift(), nil
}

// WithOperator returns ctx carrying the current operator id for loggers and
// repositories that read it from the context.
func (s *Session) WithOperator(ctx context.Context) context.Context {
	if id := s.OperatorID(); id != nil {
		return errors.ContextWithOperatorID(ctx, *id)
	}
	return ctx
}
