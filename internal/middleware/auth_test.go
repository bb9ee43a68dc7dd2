package middleware

import (
	"testing"

	"swiftmart-admin-services/internal/auth"
)

func TestAllowsRole(t *testing.T) {
	cases := []struct {
		name     string
		required auth.UserRole
		got      auth.UserRole
		want     bool
	}{
		{"admin routes admit admins", auth.RoleAdmin, auth.RoleAdmin, true},
		{"admin routes reject couriers", auth.RoleAdmin, auth.RoleDelivery, false},
		{"delivery routes admit couriers", auth.RoleDelivery, auth.RoleDelivery, true},
		{"delivery routes reject admins", auth.RoleDelivery, auth.RoleAdmin, false},
		{"session routes admit admins", "", auth.RoleAdmin, true},
		{"session routes admit couriers", "", auth.RoleDelivery, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := allowsRole(tc.required, tc.got); got != tc.want {
				t.Fatalf("allowsRole(%q, %q) = %v, want %v", tc.required, tc.got, got, tc.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	granted := []string{"orders.manage", "reports.view"}
	if !hasPermission(granted, "orders.manage") {
		t.Fatal("granted permission rejected")
	}
	if hasPermission(granted, "payments.manage") {
		t.Fatal("missing permission accepted")
	}
	if hasPermission(nil, "orders.manage") {
		t.Fatal("empty grant list accepted")
	}
}
