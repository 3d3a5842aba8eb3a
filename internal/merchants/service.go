// Package merchants manages merchant records and the soft-delete cascade that
// detaches a merchant's users, offers, tokens and invitations.
package merchants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/internal/tokens"
	"github.com/angelmondragon/boost-backend/internal/users"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/boost-backend/pkg/db/types"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/identity"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
	"github.com/angelmondragon/boost-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/boost-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes merchant management.
type Service interface {
	Create(ctx context.Context, caller auth.Caller, input CreateInput) (*MerchantDTO, error)
	List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error)
	Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*MerchantDTO, error)
	Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*MerchantDTO, error)
	Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*DeleteResult, error)
	Restore(ctx context.Context, caller auth.Caller, id uuid.UUID) (*MerchantDTO, error)
}

// ServiceParams wires the merchant service and the repositories its
// deletion cascade writes to.
type ServiceParams struct {
	Tx           txRunner
	Repo         *Repository
	Users        *users.Repository
	PendingRoles *users.PendingRoleRepository
	Offers       *offers.Repository
	Tokens       *tokens.Repository
	Outbox       outboxPublisher
	Directory    identity.Directory
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	tx        txRunner
	repo      *Repository
	users     *users.Repository
	pending   *users.PendingRoleRepository
	offers    *offers.Repository
	tokens    *tokens.Repository
	outbox    outboxPublisher
	directory identity.Directory
	logg      *logger.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewService validates params and builds the merchant service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("merchant repository required")
	case params.Users == nil || params.PendingRoles == nil:
		return nil, fmt.Errorf("user repositories required")
	case params.Offers == nil:
		return nil, fmt.Errorf("offer repository required")
	case params.Tokens == nil:
		return nil, fmt.Errorf("token repository required")
	case params.Directory == nil:
		return nil, fmt.Errorf("identity directory required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:        params.Tx,
		repo:      params.Repo,
		users:     params.Users,
		pending:   params.PendingRoles,
		offers:    params.Offers,
		tokens:    params.Tokens,
		outbox:    params.Outbox,
		directory: params.Directory,
		logg:      params.Logger,
		validate:  validator.New(),
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Caller, input CreateInput) (*MerchantDTO, error) {
	if err := access.RequireOwner(caller); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.ContactEmail)
	locations := input.Locations
	if locations == nil {
		locations = []string{}
	}
	if err := s.validateFields(name, email, locations); err != nil {
		return nil, err
	}

	merchant := &models.Merchant{
		Name:         name,
		ContactEmail: email,
		Locations:    dbtypes.StringList(locations),
		Status:       enums.MerchantStatusActive,
	}
	if err := s.repo.Create(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
	}
	dto := FromModel(*merchant)
	return &dto, nil
}

func (s *service) List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error) {
	page := pagination.Standard.Normalize(pagination.Params{Limit: input.Limit, Offset: input.Offset})
	result := &ListResult{Merchants: []MerchantDTO{}, Limit: page.Limit, Offset: page.Offset}

	if caller.Role == enums.RoleOwner {
		rows, err := s.repo.List(ctx, input.IncludeDeleted, page.Limit, page.Offset)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchants")
		}
		for _, row := range rows {
			result.Merchants = append(result.Merchants, FromModel(row))
		}
		return result, nil
	}

	if caller.MerchantID == nil {
		return result, nil
	}
	merchant, err := s.repo.FindByID(ctx, *caller.MerchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	result.Merchants = append(result.Merchants, FromModel(*merchant))
	return result, nil
}

func (s *service) Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*MerchantDTO, error) {
	if err := access.RequireStaffOrAbove(caller, id); err != nil {
		return nil, err
	}
	merchant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*merchant)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*MerchantDTO, error) {
	if err := access.RequireMerchantAdmin(caller, id); err != nil {
		return nil, err
	}
	merchant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		merchant.Name = strings.TrimSpace(*input.Name)
	}
	if input.ContactEmail != nil {
		merchant.ContactEmail = strings.TrimSpace(*input.ContactEmail)
	}
	if input.Locations != nil {
		locations := *input.Locations
		if locations == nil {
			locations = []string{}
		}
		merchant.Locations = dbtypes.StringList(locations)
	}
	if err := s.validateFields(merchant.Name, merchant.ContactEmail, merchant.Locations); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant")
	}
	dto := FromModel(*merchant)
	return &dto, nil
}

// Delete soft deletes the merchant and, in the same transaction, orphans its
// users, pauses its active offers, expires their active tokens and cancels
// unclaimed invitations. Identity claims of orphaned users are cleared after
// commit.
func (s *service) Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*DeleteResult, error) {
	if err := access.RequireOwner(caller); err != nil {
		return nil, err
	}
	merchant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if merchant.Status == enums.MerchantStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Merchant is already deleted")
	}

	now := s.now().UTC()
	result := &DeleteResult{Deleted: true, ID: id}
	var orphaned []string

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkDeleted(ctx, id, caller.UID, now)
		if err != nil {
			return fmt.Errorf("mark merchant deleted: %w", err)
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "Merchant is already deleted")
		}

		usersRepo := s.users.WithTx(tx)
		orphaned, err = usersRepo.IDsByMerchant(ctx, id)
		if err != nil {
			return fmt.Errorf("list merchant users: %w", err)
		}
		n, err := usersRepo.OrphanByMerchant(ctx, id, now)
		if err != nil {
			return fmt.Errorf("orphan users: %w", err)
		}
		result.OrphanedUsers = int(n)

		offersRepo := s.offers.WithTx(tx)
		if n, err = offersRepo.PauseActiveByMerchant(ctx, id); err != nil {
			return fmt.Errorf("pause offers: %w", err)
		}
		result.PausedOffers = int(n)

		offerIDs, err := offersRepo.IDsByMerchant(ctx, id)
		if err != nil {
			return fmt.Errorf("list merchant offers: %w", err)
		}
		if n, err = s.tokens.WithTx(tx).ExpireActiveForOffers(ctx, offerIDs); err != nil {
			return fmt.Errorf("expire tokens: %w", err)
		}
		result.ExpiredTokens = int(n)

		if n, err = s.pending.WithTx(tx).CancelByMerchant(ctx, id); err != nil {
			return fmt.Errorf("cancel pending roles: %w", err)
		}
		result.CancelledPendingRoles = int(n)

		return s.emitDeleted(ctx, tx, caller, result, now)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete merchant")
	}

	var clearErr error
	for _, uid := range orphaned {
		clearErr = multierr.Append(clearErr, s.directory.ClearClaims(ctx, uid))
	}
	if clearErr != nil {
		logCtx := s.logg.WithMerchantID(ctx, id.String())
		s.logg.Error(logCtx, "clear orphaned user claims", clearErr)
	}
	return result, nil
}

func (s *service) emitDeleted(ctx context.Context, tx *gorm.DB, caller auth.Caller, result *DeleteResult, at time.Time) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventMerchantDeleted,
		AggregateType: enums.AggregateMerchant,
		AggregateID:   result.ID,
		Actor:         outbox.ActorFromCaller(caller),
		OccurredAt:    at,
		Data: payloads.MerchantDeletedEvent{
			MerchantID:            result.ID,
			DeletedBy:             caller.UID,
			DeletedAt:             at,
			OrphanedUsers:         result.OrphanedUsers,
			PausedOffers:          result.PausedOffers,
			ExpiredTokens:         result.ExpiredTokens,
			CancelledPendingRoles: result.CancelledPendingRoles,
		},
	})
}

// Restore reactivates a deleted merchant. Orphaned users, paused offers and
// expired tokens stay as they are.
func (s *service) Restore(ctx context.Context, caller auth.Caller, id uuid.UUID) (*MerchantDTO, error) {
	if err := access.RequireOwner(caller); err != nil {
		return nil, err
	}
	merchant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if merchant.Status != enums.MerchantStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Merchant is not deleted")
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore merchant")
	}
	restored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*restored)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	merchant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

func (s *service) validateFields(name, email string, locations []string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "name must be between 1 and %d characters", MaxNameLength)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "email must be a valid address")
	}
	if len(locations) > MaxLocations {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d locations are allowed", MaxLocations)
	}
	for _, loc := range locations {
		if utf8.RuneCountInString(loc) > MaxLocationLength {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "locations must be at most %d characters", MaxLocationLength)
		}
	}
	return nil
}
