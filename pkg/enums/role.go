package enums

import "fmt"

// Role is the platform permission level carried in identity claims.
// The hierarchy is owner > merchant_admin > staff.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleMerchantAdmin Role = "merchant_admin"
	RoleStaff         Role = "staff"
)

var validRoles = []Role{
	RoleOwner,
	RoleMerchantAdmin,
	RoleStaff,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value matches a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// RequiresMerchant reports whether the role must be scoped to a merchant.
func (r Role) RequiresMerchant() bool {
	return r == RoleMerchantAdmin || r == RoleStaff
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
