package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/internal/caps"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

const (
	DefaultCapDaily = 50
	MaxCapDaily     = 10000
	MaxNameLength   = 100
	MaxTermsLength  = 500
	// MoneyPlaces matches the NUMERIC(12,2) columns.
	MoneyPlaces = 2
)

// MinValuePerRedemption is the smallest amount an offer may accrue per redemption.
var MinValuePerRedemption = decimal.RequireFromString("0.01")

// OfferDTO is the admin view of an offer, including the read-time cap projection.
type OfferDTO struct {
	ID                 uuid.UUID         `json:"id"`
	MerchantID         uuid.UUID         `json:"merchant_id"`
	Name               string            `json:"name"`
	DiscountText       string            `json:"discount_text"`
	Terms              *string           `json:"terms"`
	CapDaily           int               `json:"cap_daily"`
	ActiveHours        *string           `json:"active_hours"`
	ValuePerRedemption decimal.Decimal   `json:"value_per_redemption"`
	Status             enums.OfferStatus `json:"status"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	TodayRedemptions   int               `json:"today_redemptions"`
	CapRemaining       int               `json:"cap_remaining"`
}

// CreateInput carries the fields of a new offer.
type CreateInput struct {
	MerchantID         uuid.UUID
	Name               string
	DiscountText       string
	Terms              *string
	CapDaily           int
	ActiveHours        *string
	ValuePerRedemption decimal.Decimal
}

// UpdateInput carries the mutable fields of an offer. Nil fields are left unchanged.
type UpdateInput struct {
	Name               *string
	DiscountText       *string
	Terms              *string
	CapDaily           *int
	ActiveHours        *string
	Status             *enums.OfferStatus
	ValuePerRedemption *decimal.Decimal
}

// ListInput filters an offer listing.
type ListInput struct {
	MerchantID *uuid.UUID
	Status     *enums.OfferStatus
	Limit      int
	Offset     int
}

// ListResult is the response for an offer listing.
type ListResult struct {
	Offers []OfferDTO `json:"offers"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// DeleteResult reports a soft-deleted offer.
type DeleteResult struct {
	Deleted bool      `json:"deleted"`
	ID      uuid.UUID `json:"id"`
}

// FromModel maps an offer and today's redemption count onto the DTO.
func FromModel(o *models.Offer, todayCount int) OfferDTO {
	return OfferDTO{
		ID:                 o.ID,
		MerchantID:         o.MerchantID,
		Name:               o.Name,
		DiscountText:       o.DiscountText,
		Terms:              o.Terms,
		CapDaily:           o.CapDaily,
		ActiveHours:        o.ActiveHours,
		ValuePerRedemption: o.ValuePerRedemption,
		Status:             o.Status,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		TodayRedemptions:   todayCount,
		CapRemaining:       caps.Remaining(o.CapDaily, todayCount),
	}
}
