// Package public serves the unauthenticated offer card shown to consumers who
// scan a QR code or type a short code.
package public

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/caps"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

const defaultMerchantName = "Local Business"

type tokenResolver interface {
	Resolve(ctx context.Context, input string) (*models.RedemptionToken, error)
}

type offerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

type merchantLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

type capCounter interface {
	CountToday(ctx context.Context, offerID uuid.UUID, now time.Time) (int, error)
}

// OfferCard is the consumer-facing view of a token's offer.
type OfferCard struct {
	TokenID      uuid.UUID `json:"token_id"`
	ShortCode    string    `json:"short_code"`
	OfferName    string    `json:"offer_name"`
	DiscountText string    `json:"discount_text"`
	Terms        *string   `json:"terms"`
	MerchantName string    `json:"merchant_name"`
	ActiveHours  *string   `json:"active_hours"`
	CapRemaining int       `json:"cap_remaining"`
	QRData       string    `json:"qr_data"`
}

type Service struct {
	tokens    tokenResolver
	offers    offerLoader
	merchants merchantLoader
	counter   capCounter
	now       func() time.Time
}

func NewService(tokens tokenResolver, offers offerLoader, merchants merchantLoader, counter capCounter, now func() time.Time) (*Service, error) {
	if tokens == nil || offers == nil || merchants == nil || counter == nil {
		return nil, fmt.Errorf("public offer dependencies required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{tokens: tokens, offers: offers, merchants: merchants, counter: counter, now: now}, nil
}

// OfferCard resolves tokenOrCode and describes its offer. Expired tokens and
// inactive offers are Gone.
func (s *Service) OfferCard(ctx context.Context, tokenOrCode string) (*OfferCard, error) {
	now := s.now().UTC()

	token, err := s.tokens.Resolve(ctx, tokenOrCode)
	if err != nil {
		return nil, err
	}
	if token.Status == enums.TokenStatusExpired || token.ExpiresAt.Before(now) {
		return nil, pkgerrors.New(pkgerrors.CodeGone, "This offer has expired")
	}

	offer, err := s.offers.FindByID(ctx, token.OfferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.Status != enums.OfferStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeGone, "This offer is no longer active")
	}

	merchantName := defaultMerchantName
	merchant, err := s.merchants.FindByID(ctx, offer.MerchantID)
	switch {
	case err == nil && merchant.Name != "":
		merchantName = merchant.Name
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	today, err := s.counter.CountToday(ctx, offer.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's redemptions")
	}

	return &OfferCard{
		TokenID:      token.ID,
		ShortCode:    token.ShortCode,
		OfferName:    offer.Name,
		DiscountText: offer.DiscountText,
		Terms:        offer.Terms,
		MerchantName: merchantName,
		ActiveHours:  offer.ActiveHours,
		CapRemaining: caps.Remaining(offer.CapDaily, today),
		QRData:       token.QRData,
	}, nil
}
