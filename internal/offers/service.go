// Package offers manages merchant offers and projects their remaining daily
// capacity at read time.
package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/pagination"
)

type offerRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	List(ctx context.Context, filter ListFilter) ([]models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
}

type merchantLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

type capCounter interface {
	CountToday(ctx context.Context, offerID uuid.UUID, now time.Time) (int, error)
	BatchCountToday(ctx context.Context, offerIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int, error)
}

// Service exposes offer operations.
type Service interface {
	Create(ctx context.Context, caller auth.Caller, input CreateInput) (*OfferDTO, error)
	List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error)
	Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*OfferDTO, error)
	Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*OfferDTO, error)
	Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo      offerRepository
	merchants merchantLookup
	counter   capCounter
	now       func() time.Time
}

// NewService builds an offer service with the provided repositories.
func NewService(repo offerRepository, merchants merchantLookup, counter capCounter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant lookup required")
	}
	if counter == nil {
		return nil, fmt.Errorf("cap counter required")
	}
	return &service{
		repo:      repo,
		merchants: merchants,
		counter:   counter,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Caller, input CreateInput) (*OfferDTO, error) {
	if err := access.RequireMerchantAdmin(caller, input.MerchantID); err != nil {
		return nil, err
	}

	merchant, err := s.merchants.FindByID(ctx, input.MerchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	if merchant.Status == enums.MerchantStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot create offers for deleted merchant")
	}

	capDaily := input.CapDaily
	if capDaily == 0 {
		capDaily = DefaultCapDaily
	}
	offer := &models.Offer{
		MerchantID:         input.MerchantID,
		Name:               strings.TrimSpace(input.Name),
		DiscountText:       strings.TrimSpace(input.DiscountText),
		Terms:              input.Terms,
		CapDaily:           capDaily,
		ActiveHours:        input.ActiveHours,
		ValuePerRedemption: input.ValuePerRedemption.Round(MoneyPlaces),
		Status:             enums.OfferStatusActive,
	}
	if err := validateOffer(offer); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	dto := FromModel(offer, 0)
	return &dto, nil
}

func (s *service) List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error) {
	scope, err := access.ScopeMerchant(caller, input.MerchantID)
	if err != nil {
		return nil, err
	}
	page := pagination.Standard.Normalize(pagination.Params{Limit: input.Limit, Offset: input.Offset})

	rows, err := s.repo.List(ctx, ListFilter{
		MerchantID: scope,
		Status:     input.Status,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.counter.BatchCountToday(ctx, ids, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's redemptions")
	}

	out := make([]OfferDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], counts[rows[i].ID]))
	}
	return &ListResult{Offers: out, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *service) Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*OfferDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireStaffOrAbove(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	return s.project(ctx, offer)
}

func (s *service) Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*OfferDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMerchantAdmin(caller, offer.MerchantID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		offer.Name = strings.TrimSpace(*input.Name)
	}
	if input.DiscountText != nil {
		offer.DiscountText = strings.TrimSpace(*input.DiscountText)
	}
	if input.Terms != nil {
		offer.Terms = input.Terms
	}
	if input.CapDaily != nil {
		offer.CapDaily = *input.CapDaily
	}
	if input.ActiveHours != nil {
		offer.ActiveHours = input.ActiveHours
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid offer status")
		}
		offer.Status = *input.Status
	}
	if input.ValuePerRedemption != nil {
		offer.ValuePerRedemption = input.ValuePerRedemption.Round(MoneyPlaces)
	}
	if err := validateOffer(offer); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
	}
	return s.project(ctx, offer)
}

// Delete retires an offer by expiring it. Redemptions and ledger entries keep
// referencing it, so the row itself is never removed.
func (s *service) Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*DeleteResult, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMerchantAdmin(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, offer.ID, enums.OfferStatusExpired); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire offer")
	}
	return &DeleteResult{Deleted: true, ID: offer.ID}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

func (s *service) project(ctx context.Context, offer *models.Offer) (*OfferDTO, error) {
	count, err := s.counter.CountToday(ctx, offer.ID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's redemptions")
	}
	dto := FromModel(offer, count)
	return &dto, nil
}

func validateOffer(offer *models.Offer) error {
	switch {
	case offer.Name == "" || utf8.RuneCountInString(offer.Name) > MaxNameLength:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "name must be 1-%d characters", MaxNameLength)
	case offer.DiscountText == "" || utf8.RuneCountInString(offer.DiscountText) > MaxNameLength:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "discount_text must be 1-%d characters", MaxNameLength)
	case offer.Terms != nil && utf8.RuneCountInString(*offer.Terms) > MaxTermsLength:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "terms must be at most %d characters", MaxTermsLength)
	case offer.CapDaily < 1 || offer.CapDaily > MaxCapDaily:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "cap_daily must be between 1 and %d", MaxCapDaily)
	case offer.ValuePerRedemption.LessThan(MinValuePerRedemption):
		return pkgerrors.Newf(pkgerrors.CodeValidation, "value_per_redemption must be at least %s", MinValuePerRedemption.StringFixed(2))
	}
	return nil
}
