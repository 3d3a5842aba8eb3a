package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

const (
	PendingRoleTTL = 7 * 24 * time.Hour

	InviteStatusClaimed = "claimed"
	InviteStatusPending = "pending"

	MsgNoPendingRole = "No pending role found for your email"
	MsgInviteExpired = "Invite has expired"
	MsgRoleClaimed   = "Role claimed successfully"
)

// UserDTO is the transport shape of a user record.
type UserDTO struct {
	UID        string           `json:"uid"`
	Email      string           `json:"email"`
	Role       *enums.Role      `json:"role"`
	MerchantID *uuid.UUID       `json:"merchant_id"`
	IsPrimary  bool             `json:"is_primary"`
	Status     enums.UserStatus `json:"status"`
	CreatedBy  *string          `json:"created_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

type PendingRoleDTO struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Role       enums.Role `json:"role"`
	MerchantID *uuid.UUID `json:"merchant_id"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// InviteInput grants role to email, optionally scoped to a merchant.
type InviteInput struct {
	Email      string     `json:"email"`
	Role       enums.Role `json:"role"`
	MerchantID *uuid.UUID `json:"merchant_id"`
}

// InviteResult reports whether the grant applied immediately or is pending.
type InviteResult struct {
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	UserID    string     `json:"user_id,omitempty"`
	PendingID *uuid.UUID `json:"pending_id,omitempty"`
}

type ClaimResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Role       *enums.Role `json:"role,omitempty"`
	MerchantID *uuid.UUID  `json:"merchant_id,omitempty"`
}

type ListInput struct {
	MerchantID *uuid.UUID
	Limit      int
	Offset     int
}

type ListResult struct {
	Users   []UserDTO        `json:"users"`
	Pending []PendingRoleDTO `json:"pending"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	UID     string `json:"uid"`
}

func FromModel(u models.User) UserDTO {
	return UserDTO{
		UID:        u.ID,
		Email:      u.Email,
		Role:       u.Role,
		MerchantID: u.MerchantID,
		IsPrimary:  u.IsPrimary,
		Status:     u.Status,
		CreatedBy:  u.CreatedBy,
		CreatedAt:  u.CreatedAt,
	}
}

func PendingFromModel(p models.PendingRole) PendingRoleDTO {
	return PendingRoleDTO{
		ID:         p.ID,
		Email:      p.Email,
		Role:       p.Role,
		MerchantID: p.MerchantID,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
		ExpiresAt:  p.ExpiresAt,
	}
}
