package operator

import (
	"errors"
	"time"

	operatorDatamodel "github.com/frahmantamala/optical-pos/internal/core/datamodel/operator"
)

const (
	PermissionAdmin                = "admin"
	PermissionOperateTill          = "operate_till"
	PermissionAdjustStock          = "adjust_stock"
	PermissionReceiveStock         = "receive_stock"
	PermissionManagePurchaseOrders = "manage_purchase_orders"
	PermissionManageOperators      = "manage_operators"
)

// KnownPermissions lists every permission the application checks, with the
// description stored alongside it.
var KnownPermissions = map[string]string{
	PermissionAdmin:                "full administrator",
	PermissionOperateTill:          "can open and run a cashier shift",
	PermissionAdjustStock:          "can adjust stock on hand",
	PermissionReceiveStock:         "can receive purchase order deliveries",
	PermissionManagePurchaseOrders: "can create and cancel purchase orders",
	PermissionManageOperators:      "can create operators and change their permissions",
}

type Operator struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (o *Operator) HasPermission(permission string) bool {
	for _, p := range o.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (o *Operator) HasAnyPermission(permissions []string) bool {
	for _, required := range permissions {
		if o.HasPermission(required) {
			return true
		}
	}
	return false
}

func (o *Operator) IsAdmin() bool {
	return o.HasPermission(PermissionAdmin)
}

var (
	ErrNotFound           = errors.New("operator not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPermissionNotFound = errors.New("permission not found")
)

func ToDataModel(o *Operator) *operatorDatamodel.Operator {
	return &operatorDatamodel.Operator{
		ID:           o.ID,
		Username:     o.Username,
		DisplayName:  o.DisplayName,
		PasswordHash: o.PasswordHash,
		IsActive:     o.IsActive,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func FromDataModel(o *operatorDatamodel.Operator) *Operator {
	return &Operator{
		ID:           o.ID,
		Username:     o.Username,
		DisplayName:  o.DisplayName,
		PasswordHash: o.PasswordHash,
		IsActive:     o.IsActive,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Permissions:  []string{},
	}
}

func FromDataModelWithPermissions(o *operatorDatamodel.Operator, permissions []string) *Operator {
	domainOperator := FromDataModel(o)
	domainOperator.Permissions = permissions
	return domainOperator
}
