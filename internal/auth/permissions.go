package auth

import (
	"net/http"
	"strings"
)

type Permission string

const (
	PermOrdersManage    Permission = "orders.manage"
	PermPaymentsManage  Permission = "payments.manage"
	PermInventoryManage Permission = "inventory.manage"
	PermDiscountsManage Permission = "discounts.manage"
	PermReportsView     Permission = "reports.view"
)

// GetPermissionForAPI maps an admin API path to the staff permission it
// requires. A nil result means the route is open to any authenticated admin.
func GetPermissionForAPI(path string, method string) *Permission {
	switch {
	case strings.HasPrefix(path, "/api/orders/report"):
		return permPtr(PermReportsView)
	case strings.HasPrefix(path, "/api/orders"):
		if method == http.MethodGet {
			return nil
		}
		return permPtr(PermOrdersManage)
	case strings.HasPrefix(path, "/api/delivery"):
		if method == http.MethodGet {
			return nil
		}
		return permPtr(PermOrdersManage)
	case strings.HasPrefix(path, "/api/payments/admin/reports"),
		strings.HasPrefix(path, "/api/payments/admin/statistics"):
		return permPtr(PermReportsView)
	case strings.HasPrefix(path, "/api/payments/admin"):
		if method == http.MethodGet {
			return nil
		}
		return permPtr(PermPaymentsManage)
	case strings.HasPrefix(path, "/api/inventory/reports"):
		return permPtr(PermReportsView)
	case strings.HasPrefix(path, "/api/inventory"):
		if method == http.MethodGet {
			return nil
		}
		return permPtr(PermInventoryManage)
	case strings.HasPrefix(path, "/api/discounts"):
		if method == http.MethodGet {
			return nil
		}
		return permPtr(PermDiscountsManage)
	}
	return nil
}

func permPtr(p Permission) *Permission {
	return &p
}
