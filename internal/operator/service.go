package operator

import (
	"context"
	stderrors "errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/pkg/logger"
)

type Repository interface {
	Create(ctx context.Context, operator *Operator) error
	GetByID(ctx context.Context, id int64) (*Operator, error)
	GetByUsername(ctx context.Context, username string) (*Operator, error)
	SetActive(ctx context.Context, id int64, active bool) error
	EnsurePermission(ctx context.Context, name, description string) error
	GrantPermission(ctx context.Context, operatorID int64, permission string, grantedBy *int64) error
	RevokePermission(ctx context.Context, operatorID int64, permission string) error
	HasPermission(ctx context.Context, operatorID int64, permission string) (bool, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

// EnsurePermissions creates the permission rows the application checks.
func (s *Service) EnsurePermissions(ctx context.Context) error {
	for name, description := range KnownPermissions {
		if err := s.repo.EnsurePermission(ctx, name, description); err != nil {
			s.log(ctx).Error("failed to ensure permission", "error", err, "permission", name)
			return errors.NewServiceError("failed to ensure permissions", err)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, dto CreateOperatorDTO, grantedBy *int64) (*Operator, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.log(ctx).Warn("operator validation failed", "error", err, "username", dto.Username)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewServiceError("failed to hash password", err)
	}

	op := &Operator{
		Username:     dto.Username,
		DisplayName:  dto.DisplayName,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, op); err != nil {
		if stderrors.Is(err, ErrUsernameTaken) {
			return nil, errors.NewConflictError("username already taken", errors.ErrCodeDuplicateUsername)
		}
		s.log(ctx).Error("failed to create operator", "error", err, "username", dto.Username)
		return nil, errors.NewServiceError("failed to create operator", err)
	}

	for _, p := range dto.Permissions {
		if err := s.repo.GrantPermission(ctx, op.ID, p, grantedBy); err != nil {
			s.log(ctx).Error("failed to grant initial permission", "error", err, "operator_id", op.ID, "permission", p)
			return nil, s.classify(err, "failed to grant permission")
		}
	}

	s.log(ctx).Info("operator created", "operator_id", op.ID, "username", op.Username)
	return s.GetByID(ctx, op.ID)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Operator, error) {
	op, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(err, "failed to get operator")
	}
	return op, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*Operator, error) {
	op, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.classify(err, "failed to get operator")
	}
	return op, nil
}

func (s *Service) Grant(ctx context.Context, operatorID int64, permission string, grantedBy int64) error {
	if err := ValidatePermission(permission); err != nil {
		return err
	}
	if err := s.repo.GrantPermission(ctx, operatorID, permission, &grantedBy); err != nil {
		s.log(ctx).Error("failed to grant permission", "error", err, "operator_id", operatorID, "permission", permission)
		return s.classify(err, "failed to grant permission")
	}
	s.log(ctx).Info("permission granted", "operator_id", operatorID, "permission", permission, "granted_by", grantedBy)
	return nil
}

func (s *Service) Revoke(ctx context.Context, operatorID int64, permission string) error {
	if err := ValidatePermission(permission); err != nil {
		return err
	}
	if err := s.repo.RevokePermission(ctx, operatorID, permission); err != nil {
		s.log(ctx).Error("failed to revoke permission", "error", err, "operator_id", operatorID, "permission", permission)
		return s.classify(err, "failed to revoke permission")
	}
	s.log(ctx).Info("permission revoked", "operator_id", operatorID, "permission", permission)
	return nil
}

func (s *Service) Activate(ctx context.Context, operatorID int64) error {
	return s.setActive(ctx, operatorID, true)
}

// Deactivate is the only way an operator leaves the system; rows are never deleted.
func (s *Service) Deactivate(ctx context.Context, operatorID int64) error {
	return s.setActive(ctx, operatorID, false)
}

func (s *Service) setActive(ctx context.Context, operatorID int64, active bool) error {
	if err := s.repo.SetActive(ctx, operatorID, active); err != nil {
		s.log(ctx).Error("failed to change operator status", "error", err, "operator_id", operatorID, "active", active)
		return s.classify(err, "failed to change operator status")
	}
	s.log(ctx).Info("operator status changed", "operator_id", operatorID, "active", active)
	return nil
}

func (s *Service) HasPermission(ctx context.Context, operatorID int64, permission string) (bool, error) {
	ok, err := s.repo.HasPermission(ctx, operatorID, permission)
	if err != nil {
		return false, s.classify(err, "failed to check permission")
	}
	return ok, nil
}

func (s *Service) classify(err error, message string) error {
	switch {
	case stderrors.Is(err, ErrNotFound):
		return errors.NewNotFoundError("operator not found", errors.ErrCodeOperatorNotFound)
	case stderrors.Is(err, ErrPermissionNotFound):
		return errors.NewValidationFieldError("permission", "permission does not exist", errors.ErrCodeValidationFailed)
	default:
		return errors.AsServiceError(message, err)
	}
}
