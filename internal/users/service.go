// Package users provisions roles for identity-provider accounts and tracks
// invitations for emails that have no account yet.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/identity"
	"github.com/angelmondragon/boost-backend/pkg/pagination"
)

type merchantLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// Service exposes user and invitation management.
type Service interface {
	InviteOrAssign(ctx context.Context, caller auth.Caller, input InviteInput) (*InviteResult, error)
	ClaimPendingRole(ctx context.Context, caller auth.Caller) (*ClaimResult, error)
	List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error)
	Delete(ctx context.Context, caller auth.Caller, uid string) (*DeleteResult, error)
}

type service struct {
	users     *Repository
	pending   *PendingRoleRepository
	merchants merchantLookup
	directory identity.Directory
	now       func() time.Time
}

// NewService builds the users service.
func NewService(usersRepo *Repository, pending *PendingRoleRepository, merchants merchantLookup, directory identity.Directory, now func() time.Time) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending role repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant lookup required")
	}
	if directory == nil {
		return nil, fmt.Errorf("identity directory required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{users: usersRepo, pending: pending, merchants: merchants, directory: directory, now: now}, nil
}

func (s *service) InviteOrAssign(ctx context.Context, caller auth.Caller, input InviteInput) (*InviteResult, error) {
	if err := access.RequireOwner(caller); err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be owner, merchant_admin or staff")
	}

	merchantID := input.MerchantID
	if input.Role == enums.RoleOwner {
		merchantID = nil
	} else {
		if merchantID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant_id is required for merchant_admin and staff roles")
		}
		merchant, err := s.merchants.FindByID(ctx, *merchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Merchant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}
		if merchant.Status == enums.MerchantStatusDeleted {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot assign users to deleted merchant")
		}
	}

	account, err := s.directory.LookupByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup identity")
	}
	if account != nil {
		if err := s.grant(ctx, account.UID, email, input.Role, merchantID, caller.UID); err != nil {
			return nil, err
		}
		return &InviteResult{Email: email, Status: InviteStatusClaimed, UserID: account.UID}, nil
	}

	now := s.now().UTC()
	pending := &models.PendingRole{
		Email:      email,
		Role:       input.Role,
		MerchantID: merchantID,
		CreatedBy:  caller.UID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(PendingRoleTTL),
	}
	if err := s.pending.Create(ctx, pending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending role")
	}
	id := pending.ID
	return &InviteResult{Email: email, Status: InviteStatusPending, PendingID: &id}, nil
}

func (s *service) ClaimPendingRole(ctx context.Context, caller auth.Caller) (*ClaimResult, error) {
	email := normalizeEmail(caller.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "User email not found")
	}

	pending, err := s.pending.FirstUnclaimed(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ClaimResult{Success: false, Message: MsgNoPendingRole}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending role")
	}
	if pending.ExpiresAt.Before(s.now().UTC()) {
		return &ClaimResult{Success: false, Message: MsgInviteExpired}, nil
	}

	if err := s.grant(ctx, caller.UID, email, pending.Role, pending.MerchantID, pending.CreatedBy); err != nil {
		return nil, err
	}
	if err := s.pending.MarkClaimed(ctx, pending.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pending role claimed")
	}
	role := pending.Role
	return &ClaimResult{
		Success:    true,
		Message:    MsgRoleClaimed,
		Role:       &role,
		MerchantID: pending.MerchantID,
	}, nil
}

// grant pushes the role claims to the identity provider, then records the user.
func (s *service) grant(ctx context.Context, uid, email string, role enums.Role, merchantID *uuid.UUID, createdBy string) error {
	claims := auth.RoleClaims{Role: role, MerchantID: merchantID}
	existing, err := s.users.FindByID(ctx, uid)
	switch {
	case err == nil:
		claims.IsPrimary = existing.IsPrimary && role == enums.RoleOwner
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.directory.SetRoleClaims(ctx, uid, claims); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set role claims")
	}
	user := &models.User{
		ID:         uid,
		Email:      email,
		Role:       &role,
		MerchantID: merchantID,
		Status:     enums.UserStatusActive,
		CreatedBy:  &createdBy,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert user")
	}
	return nil
}

func (s *service) List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error) {
	var scope *uuid.UUID
	switch {
	case caller.Role == enums.RoleOwner:
		scope = input.MerchantID
	case caller.Role == enums.RoleMerchantAdmin && caller.MerchantID != nil:
		id := *caller.MerchantID
		scope = &id
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied")
	}
	page := pagination.Standard.Normalize(pagination.Params{Limit: input.Limit, Offset: input.Offset})

	rows, err := s.users.List(ctx, scope, page.Limit, page.Offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	pendingRows, err := s.pending.ListOpen(ctx, scope, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending roles")
	}

	out := &ListResult{
		Users:   make([]UserDTO, 0, len(rows)),
		Pending: make([]PendingRoleDTO, 0, len(pendingRows)),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, u := range rows {
		out.Users = append(out.Users, FromModel(u))
	}
	for _, p := range pendingRows {
		out.Pending = append(out.Pending, PendingFromModel(p))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, caller auth.Caller, uid string) (*DeleteResult, error) {
	target, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	subject := access.Subject{MerchantID: target.MerchantID, IsPrimary: target.IsPrimary}
	if target.Role != nil {
		subject.Role = *target.Role
	}
	if !access.CanDeleteUser(caller, subject) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Cannot delete this user")
	}

	if err := s.directory.ClearClaims(ctx, uid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear claims")
	}
	if err := s.users.MarkDeleted(ctx, uid, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return &DeleteResult{Deleted: true, UID: uid}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
