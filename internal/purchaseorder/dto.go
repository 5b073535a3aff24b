package purchaseorder

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
)

type CreateLineDTO struct {
	InventoryItemID int64           `json:"inventory_item_id"`
	QuantityOrdered int             `json:"quantity_ordered"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

type CreatePurchaseOrderDTO struct {
	Supplier  string          `json:"supplier"`
	OrderDate *time.Time      `json:"order_date,omitempty"`
	Lines     []CreateLineDTO `json:"lines"`
}

func (dto *CreatePurchaseOrderDTO) Normalize() {
	dto.Supplier = strings.TrimSpace(dto.Supplier)
}

func (dto CreatePurchaseOrderDTO) Validate() error {
	if len(dto.Lines) == 0 {
		return errors.NewPurchaseOrderValidationError("purchase order must have at least one line")
	}

	validator := validation.NewValidator()
	validator.Field("supplier", dto.Supplier).
		NotBlank(errors.ErrCodeValidationFailed).
		MaxLength(255)
	for i, line := range dto.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		validator.Field(prefix+".inventory_item_id", line.InventoryItemID).
			Positive(errors.ErrCodeValidationFailed)
		validator.Field(prefix+".quantity_ordered", line.QuantityOrdered).
			Positive(errors.ErrCodeInvalidQuantity)
		validator.Field(prefix+".unit_price", line.UnitPrice).
			NonNegativeAmount(errors.ErrCodeInvalidAmount)
	}
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}
