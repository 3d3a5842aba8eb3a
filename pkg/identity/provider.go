// Package identity adapts external identity providers to the Caller model.
// Firebase Auth is used in production; the local provider verifies HS256
// tokens and keeps role claims in redis for development.
package identity

import (
	"context"
	"errors"

	"github.com/angelmondragon/boost-backend/pkg/auth"
)

// ErrInvalidCredential is returned when a bearer credential fails verification.
var ErrInvalidCredential = errors.New("invalid credential")

// Account is an identity known to the provider.
type Account struct {
	UID   string
	Email string
}

// Verifier turns a bearer credential into a Caller.
type Verifier interface {
	Verify(ctx context.Context, credential string) (auth.Caller, error)
}

// Directory looks up accounts and manages their role claims.
type Directory interface {
	// LookupByEmail returns nil, nil when no account exists for the email.
	LookupByEmail(ctx context.Context, email string) (*Account, error)
	SetRoleClaims(ctx context.Context, uid string, claims auth.RoleClaims) error
	ClearClaims(ctx context.Context, uid string) error
}

// Provider is the full identity surface used by the API.
type Provider interface {
	Verifier
	Directory
}
