package operator

import (
	"strings"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
)

type CreateOperatorDTO struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Password    string   `json:"password"`
	Permissions []string `json:"permissions,omitempty"`
}

func (dto *CreateOperatorDTO) Normalize() {
	dto.Username = strings.ToLower(strings.TrimSpace(dto.Username))
	dto.DisplayName = strings.TrimSpace(dto.DisplayName)
}

func (dto CreateOperatorDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("username", dto.Username).
		NotBlank(errors.ErrCodeValidationFailed).
		MinLength(3).
		MaxLength(64)
	validator.Field("display_name", dto.DisplayName).
		NotBlank(errors.ErrCodeValidationFailed).
		MaxLength(128)
	validator.Field("password", dto.Password).
		MinLength(8).
		MaxLength(72)
	for _, p := range dto.Permissions {
		validator.Field("permissions", p).Custom(knownPermission)
	}
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}

func knownPermission(value interface{}) *errors.AppError {
	name, _ := value.(string)
	if _, ok := KnownPermissions[name]; !ok {
		return errors.NewValidationFieldError("permissions", "unknown permission "+name, errors.ErrCodeValidationFailed)
	}
	return nil
}

// ValidatePermission rejects names the application never checks.
func ValidatePermission(permission string) error {
	if err := knownPermission(permission); err != nil {
		return err
	}
	return nil
}
