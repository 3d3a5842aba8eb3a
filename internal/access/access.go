// Package access holds the role checks that gate every merchant-scoped
// operation. All functions are pure: they read the caller and the target
// merchant and never touch storage.
package access

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

// RequireOwner fails unless the caller is a platform owner.
func RequireOwner(caller auth.Caller) error {
	if caller.Role == enums.RoleOwner {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "owner access required")
}

// RequireMerchantAdmin allows owners and admins of the target merchant.
func RequireMerchantAdmin(caller auth.Caller, merchantID uuid.UUID) error {
	switch caller.Role {
	case enums.RoleOwner:
		return nil
	case enums.RoleMerchantAdmin:
		if caller.InMerchant(merchantID) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "merchant admin access required")
}

// RequireStaffOrAbove allows owners plus admins and staff of the target merchant.
func RequireStaffOrAbove(caller auth.Caller, merchantID uuid.UUID) error {
	switch caller.Role {
	case enums.RoleOwner:
		return nil
	case enums.RoleMerchantAdmin, enums.RoleStaff:
		if caller.InMerchant(merchantID) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions for this merchant")
}

// Subject describes a user that may be the target of a deletion.
type Subject struct {
	Role       enums.Role
	MerchantID *uuid.UUID
	IsPrimary  bool
}

// CanDeleteUser reports whether deleter may delete target. The primary owner
// can never be deleted.
func CanDeleteUser(deleter auth.Caller, target Subject) bool {
	if target.IsPrimary {
		return false
	}
	switch deleter.Role {
	case enums.RoleOwner:
		return true
	case enums.RoleMerchantAdmin:
		return target.Role == enums.RoleStaff &&
			target.MerchantID != nil &&
			deleter.InMerchant(*target.MerchantID)
	default:
		return false
	}
}

// ScopeMerchant resolves the merchant filter for list operations. Owners may
// pass any filter, including none. Everyone else is pinned to their own merchant.
func ScopeMerchant(caller auth.Caller, requested *uuid.UUID) (*uuid.UUID, error) {
	if caller.Role == enums.RoleOwner {
		return requested, nil
	}
	if !caller.Role.RequiresMerchant() || caller.MerchantID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no merchant scope")
	}
	if requested != nil && *requested != *caller.MerchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions for this merchant")
	}
	scope := *caller.MerchantID
	return &scope, nil
}
