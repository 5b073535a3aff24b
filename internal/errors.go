package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeShiftOperation ErrorType = "SHIFT_OPERATION_ERROR"
	ErrorTypeStockReceiving ErrorType = "STOCK_RECEIVING_ERROR"
	ErrorTypePurchaseOrder  ErrorType = "PURCHASE_ORDER_ERROR"
	ErrorTypeService        ErrorType = "SERVICE_ERROR"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden      ErrorType = "FORBIDDEN"
	ErrorTypeConflict       ErrorType = "CONFLICT"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity     ErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidReason       ErrorCode = "INVALID_REASON"
	ErrCodeInsufficientStock   ErrorCode = "INSUFFICIENT_STOCK"
	ErrCodeProtectedItem       ErrorCode = "PROTECTED_ITEM"
	ErrCodePurchaseOrderEmpty  ErrorCode = "PURCHASE_ORDER_INVALID"
	ErrCodeDuplicateUsername   ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateSKU        ErrorCode = "DUPLICATE_SKU"
	ErrCodeOperatorNotFound    ErrorCode = "OPERATOR_NOT_FOUND"
	ErrCodeShiftNotFound       ErrorCode = "SHIFT_NOT_FOUND"
	ErrCodeItemNotFound        ErrorCode = "INVENTORY_ITEM_NOT_FOUND"
	ErrCodeOrderNotFound       ErrorCode = "PURCHASE_ORDER_NOT_FOUND"
	ErrCodeOrderLineNotFound   ErrorCode = "PURCHASE_ORDER_LINE_NOT_FOUND"
	ErrCodeShiftAlreadyOpen    ErrorCode = "SHIFT_ALREADY_OPEN"
	ErrCodeShiftInvalidStatus  ErrorCode = "SHIFT_INVALID_STATUS"
	ErrCodeShiftNotOwner       ErrorCode = "SHIFT_NOT_OWNER"
	ErrCodeShiftStateChanged   ErrorCode = "SHIFT_STATE_CHANGED"
	ErrCodeShiftStorage        ErrorCode = "SHIFT_STORAGE_FAILURE"
	ErrCodeOverReceipt         ErrorCode = "OVER_RECEIPT"
	ErrCodeOrderNotReceivable  ErrorCode = "ORDER_NOT_RECEIVABLE"
	ErrCodeOrderNotCancellable ErrorCode = "ORDER_NOT_CANCELLABLE"
	ErrCodeOperatorRequired    ErrorCode = "OPERATOR_REQUIRED"
	ErrCodeShiftRequired       ErrorCode = "ACTIVE_SHIFT_REQUIRED"
	ErrCodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	ErrCodeConcurrentUpdate    ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeStorageFailure      ErrorCode = "STORAGE_FAILURE"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeOperatorInactive   ErrorCode = "OPERATOR_INACTIVE"
)

// AppError is the single error shape the core returns to callers. Type is the
// error kind callers branch on, Code selects the message shown to the operator.
type AppError struct {
	Type    ErrorType   `json:"type"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithCode(code ErrorCode) *AppError {
	e.Code = code
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

func NewShiftOperationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeShiftOperation,
		Code:    code,
		Message: message,
	}
}

func NewStockReceivingError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeStockReceiving,
		Code:    code,
		Message: message,
	}
}

func NewPurchaseOrderError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypePurchaseOrder,
		Code:    code,
		Message: message,
	}
}

// NewPurchaseOrderValidationError is a validation error raised while building
// a purchase order; it keeps the validation kind so callers treat it as input.
func NewPurchaseOrderValidationError(message string) *AppError {
	return NewValidationError(message, ErrCodePurchaseOrderEmpty)
}

func NewServiceError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeService,
		Code:    ErrCodeStorageFailure,
		Message: message,
		Cause:   cause,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Code:    code,
		Message: message,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Code:    code,
		Message: message,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// AsServiceError classifies err as a ServiceError unless it already carries an
// AppError, in which case that classification is kept.
func AsServiceError(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := IsAppError(err); ok {
		return err
	}
	return NewServiceError(message, err)
}

var (
	ErrOperatorRequired   = NewForbiddenError("no operator is logged in", ErrCodeOperatorRequired)
	ErrShiftRequired      = NewForbiddenError("no active shift for the current operator", ErrCodeShiftRequired)
	ErrInvalidCredentials = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrOperatorInactive   = NewForbiddenError("operator account is inactive", ErrCodeOperatorInactive)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given kind.
func IsType(err error, t ErrorType) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == t
	}
	return false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
