package auth

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/operator"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

// OperatorStore is the slice of the identity store that authentication reads.
type OperatorStore interface {
	GetByUsername(ctx context.Context, username string) (*operator.Operator, error)
}

type Service struct {
	operators OperatorStore
	logger    *slog.Logger
}

func NewService(operators OperatorStore, logger *slog.Logger) *Service {
	return &Service{
		operators: operators,
		logger:    logger,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

// Authenticate checks the password before the active flag so an inactive
// account with a wrong password reads as bad credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*operator.Operator, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, errors.ErrInvalidCredentials
	}

	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, operator.ErrNotFound) || errors.IsType(err, errors.ErrorTypeNotFound) {
			s.log(ctx).Warn("login for unknown operator", "username", username)
			return nil, errors.ErrInvalidCredentials
		}
		s.log(ctx).Error("failed to load operator for login", "error", err, "username", username)
		return nil, errors.AsServiceError("failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		s.log(ctx).Warn("login with wrong password", "operator_id", op.ID)
		return nil, errors.ErrInvalidCredentials
	}

	if !op.IsActive {
		s.log(ctx).Warn("login by inactive operator", "operator_id", op.ID)
		return nil, errors.ErrOperatorInactive
	}

	s.log(ctx).Info("operator authenticated", "operator_id", op.ID)
	return op, nil
}
