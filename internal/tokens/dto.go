package tokens

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

const (
	DefaultExpiresDays = 30
	MaxExpiresDays     = 365
	MaxCount           = 10000

	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// TokenDTO is the admin view of a token.
type TokenDTO struct {
	ID                     uuid.UUID         `json:"id"`
	OfferID                uuid.UUID         `json:"offer_id"`
	ShortCode              string            `json:"short_code"`
	QRData                 string            `json:"qr_data"`
	Status                 enums.TokenStatus `json:"status"`
	IsUniversal            bool              `json:"is_universal"`
	ExpiresAt              time.Time         `json:"expires_at"`
	CreatedAt              time.Time         `json:"created_at"`
	RedeemedAt             *time.Time        `json:"redeemed_at"`
	RedeemedByLocation     *string           `json:"redeemed_by_location"`
	LastRedeemedAt         *time.Time        `json:"last_redeemed_at"`
	LastRedeemedByLocation *string           `json:"last_redeemed_by_location"`
}

// GenerateInput is the body of a token generation request. Count is accepted
// for compatibility and ignored: an offer always has exactly one token.
type GenerateInput struct {
	Count       int
	ExpiresDays int
}

// GenerateResult wraps the single token returned by a generation request.
type GenerateResult struct {
	OfferID uuid.UUID  `json:"offer_id"`
	Count   int        `json:"count"`
	Tokens  []TokenDTO `json:"tokens"`
}

// ListResult is the response for a token listing.
type ListResult struct {
	OfferID uuid.UUID  `json:"offer_id"`
	Tokens  []TokenDTO `json:"tokens"`
}

func FromModel(t *models.RedemptionToken) TokenDTO {
	return TokenDTO{
		ID:                     t.ID,
		OfferID:                t.OfferID,
		ShortCode:              t.ShortCode,
		QRData:                 t.QRData,
		Status:                 t.Status,
		IsUniversal:            t.IsUniversal,
		ExpiresAt:              t.ExpiresAt,
		CreatedAt:              t.CreatedAt,
		RedeemedAt:             t.RedeemedAt,
		RedeemedByLocation:     t.RedeemedByLocation,
		LastRedeemedAt:         t.LastRedeemedAt,
		LastRedeemedByLocation: t.LastRedeemedByLocation,
	}
}
