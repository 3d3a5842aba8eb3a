package auth

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Caller is the verified identity behind a request. It is built once at the
// API boundary and passed by value to services.
type Caller struct {
	UID        string
	Email      string
	Role       enums.Role
	MerchantID *uuid.UUID
	IsPrimary  bool
}

// HasRole reports whether the caller carries any recognised role.
func (c Caller) HasRole() bool {
	return c.Role.IsValid()
}

// InMerchant reports whether the caller is scoped to the given merchant.
func (c Caller) InMerchant(merchantID uuid.UUID) bool {
	return c.MerchantID != nil && *c.MerchantID == merchantID
}

// RoleClaims is the role grant stored with an identity provider account.
type RoleClaims struct {
	Role       enums.Role `json:"role"`
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	IsPrimary  bool       `json:"is_primary,omitempty"`
}

// NewCaller normalises raw claim values. Unknown roles and unparsable merchant
// ids are dropped so that every access check denies them.
func NewCaller(uid, email, rawRole, rawMerchantID string, isPrimary bool) Caller {
	caller := Caller{
		UID:   strings.TrimSpace(uid),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	if role, err := enums.ParseRole(strings.TrimSpace(rawRole)); err == nil {
		caller.Role = role
		caller.IsPrimary = isPrimary && role == enums.RoleOwner
	}
	if id, err := uuid.Parse(strings.TrimSpace(rawMerchantID)); err == nil && caller.Role.RequiresMerchant() {
		caller.MerchantID = &id
	}
	return caller
}

// WithClaims returns a copy of the caller carrying the given role grant.
func (c Caller) WithClaims(claims RoleClaims) Caller {
	merchant := ""
	if claims.MerchantID != nil {
		merchant = claims.MerchantID.String()
	}
	return NewCaller(c.UID, c.Email, string(claims.Role), merchant, claims.IsPrimary)
}
