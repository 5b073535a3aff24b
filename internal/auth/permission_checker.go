package auth

import "github.com/frahmantamala/optical-pos/internal/operator"

type PermissionChecker interface {
	CanOperateTill(permissions []string) bool
	CanAdjustStock(permissions []string) bool
	CanReceiveStock(permissions []string) bool
	CanManagePurchaseOrders(permissions []string) bool
	CanManageOperators(permissions []string) bool
	HasAnyPermission(permissions []string, required []string) bool
	IsAdmin(permissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) CanOperateTill(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{operator.PermissionOperateTill, operator.PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanAdjustStock(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{operator.PermissionAdjustStock, operator.PermissionAdmin})
}

// CanReceiveStock also admits purchase order managers, who may book their own deliveries.
func (c *DefaultPermissionChecker) CanReceiveStock(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{
		operator.PermissionReceiveStock,
		operator.PermissionManagePurchaseOrders,
		operator.PermissionAdmin,
	})
}

func (c *DefaultPermissionChecker) CanManagePurchaseOrders(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{operator.PermissionManagePurchaseOrders, operator.PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanManageOperators(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{operator.PermissionManageOperators, operator.PermissionAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(permissions []string, required []string) bool {
	for _, held := range permissions {
		for _, want := range required {
			if held == want {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(permissions []string) bool {
	return c.HasAnyPermission(permissions, []string{operator.PermissionAdmin})
}
