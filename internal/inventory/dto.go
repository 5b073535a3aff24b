package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
)

type CreateItemDTO struct {
	ProductID       int64           `json:"product_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Attributes      string          `json:"attributes,omitempty"`
	InitialQuantity int             `json:"initial_quantity"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	IsProtected     bool            `json:"is_protected"`
}

func (dto *CreateItemDTO) Normalize() {
	dto.SKU = strings.ToUpper(strings.TrimSpace(dto.SKU))
	dto.Name = strings.TrimSpace(dto.Name)
}

func (dto CreateItemDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("sku", dto.SKU).
		NotBlank(errors.ErrCodeValidationFailed).
		MaxLength(64)
	validator.Field("name", dto.Name).
		NotBlank(errors.ErrCodeValidationFailed).
		MaxLength(255)
	validator.Field("initial_quantity", dto.InitialQuantity).
		MinInt(0, errors.ErrCodeInvalidQuantity)
	validator.Field("selling_price", dto.SellingPrice).
		NonNegativeAmount(errors.ErrCodeInvalidAmount)
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}
