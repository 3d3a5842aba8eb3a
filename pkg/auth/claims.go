package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a local JWT.
type AccessTokenPayload struct {
	UID        string
	Email      string
	Role       enums.Role
	MerchantID *uuid.UUID
	IsPrimary  bool
}

// AccessTokenClaims is the typed JWT issued by the local identity provider.
// The subject is the identity uid.
type AccessTokenClaims struct {
	Email      string     `json:"email"`
	Role       enums.Role `json:"role,omitempty"`
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	IsPrimary  bool       `json:"is_primary,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into a Caller.
func (c AccessTokenClaims) Caller() Caller {
	merchant := ""
	if c.MerchantID != nil {
		merchant = c.MerchantID.String()
	}
	return NewCaller(c.Subject, c.Email, string(c.Role), merchant, c.IsPrimary)
}
