package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

var allRoles = []enums.Role{enums.RoleOwner, enums.RoleMerchantAdmin, enums.RoleStaff, ""}

type scopeCase struct {
	name     string
	merchant func(target uuid.UUID) *uuid.UUID
	matches  bool
}

var scopeCases = []scopeCase{
	{name: "same", merchant: func(target uuid.UUID) *uuid.UUID { return &target }, matches: true},
	{name: "other", merchant: func(uuid.UUID) *uuid.UUID { id := uuid.New(); return &id }},
	{name: "none", merchant: func(uuid.UUID) *uuid.UUID { return nil }},
}

func caller(role enums.Role, merchantID *uuid.UUID) auth.Caller {
	return auth.Caller{UID: "uid", Role: role, MerchantID: merchantID}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRequireStaffOrAboveCrossProduct(t *testing.T) {
	target := uuid.New()
	for _, role := range allRoles {
		for _, sc := range scopeCases {
			err := RequireStaffOrAbove(caller(role, sc.merchant(target)), target)
			want := role == enums.RoleOwner ||
				((role == enums.RoleMerchantAdmin || role == enums.RoleStaff) && sc.matches)
			if want && err != nil {
				t.Fatalf("role=%q scope=%s: expected allow, got %v", role, sc.name, err)
			}
			if !want {
				assertForbidden(t, err)
			}
		}
	}
}

func TestRequireMerchantAdminCrossProduct(t *testing.T) {
	target := uuid.New()
	for _, role := range allRoles {
		for _, sc := range scopeCases {
			err := RequireMerchantAdmin(caller(role, sc.merchant(target)), target)
			want := role == enums.RoleOwner || (role == enums.RoleMerchantAdmin && sc.matches)
			if want && err != nil {
				t.Fatalf("role=%q scope=%s: expected allow, got %v", role, sc.name, err)
			}
			if !want {
				assertForbidden(t, err)
			}
		}
	}
}

func TestRequireOwner(t *testing.T) {
	for _, role := range allRoles {
		err := RequireOwner(caller(role, nil))
		if role == enums.RoleOwner {
			if err != nil {
				t.Fatalf("owner must pass: %v", err)
			}
			continue
		}
		assertForbidden(t, err)
	}
}

func TestCanDeleteUserPrimaryNeverDeletable(t *testing.T) {
	merchant := uuid.New()
	for _, role := range allRoles {
		deleter := caller(role, &merchant)
		deleter.IsPrimary = role == enums.RoleOwner
		target := Subject{Role: enums.RoleOwner, IsPrimary: true}
		if CanDeleteUser(deleter, target) {
			t.Fatalf("role %q must not delete the primary owner", role)
		}
	}
}

func TestCanDeleteUserRules(t *testing.T) {
	merchant := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		deleter auth.Caller
		target  Subject
		want    bool
	}{
		{"owner deletes owner", caller(enums.RoleOwner, nil), Subject{Role: enums.RoleOwner}, true},
		{"owner deletes admin", caller(enums.RoleOwner, nil), Subject{Role: enums.RoleMerchantAdmin, MerchantID: &merchant}, true},
		{"admin deletes own staff", caller(enums.RoleMerchantAdmin, &merchant), Subject{Role: enums.RoleStaff, MerchantID: &merchant}, true},
		{"admin deletes other staff", caller(enums.RoleMerchantAdmin, &merchant), Subject{Role: enums.RoleStaff, MerchantID: &other}, false},
		{"admin deletes admin", caller(enums.RoleMerchantAdmin, &merchant), Subject{Role: enums.RoleMerchantAdmin, MerchantID: &merchant}, false},
		{"admin deletes unscoped staff", caller(enums.RoleMerchantAdmin, &merchant), Subject{Role: enums.RoleStaff}, false},
		{"staff deletes staff", caller(enums.RoleStaff, &merchant), Subject{Role: enums.RoleStaff, MerchantID: &merchant}, false},
		{"roleless deletes staff", caller("", nil), Subject{Role: enums.RoleStaff, MerchantID: &merchant}, false},
	}

	for _, tt := range tests {
		if got := CanDeleteUser(tt.deleter, tt.target); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestScopeMerchant(t *testing.T) {
	merchant := uuid.New()
	other := uuid.New()

	scope, err := ScopeMerchant(caller(enums.RoleOwner, nil), nil)
	if err != nil || scope != nil {
		t.Fatalf("owner without filter should be unscoped, got %v %v", scope, err)
	}
	scope, err = ScopeMerchant(caller(enums.RoleOwner, nil), &other)
	if err != nil || scope == nil || *scope != other {
		t.Fatalf("owner filter should pass through, got %v %v", scope, err)
	}

	scope, err = ScopeMerchant(caller(enums.RoleStaff, &merchant), nil)
	if err != nil || scope == nil || *scope != merchant {
		t.Fatalf("staff should be pinned to own merchant, got %v %v", scope, err)
	}
	_, err = ScopeMerchant(caller(enums.RoleMerchantAdmin, &merchant), &other)
	assertForbidden(t, err)
	_, err = ScopeMerchant(caller("", nil), nil)
	assertForbidden(t, err)
}
