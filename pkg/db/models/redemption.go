package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Redemption is the immutable record of one successful redeem.
// Value is copied from the offer at redemption time.
type Redemption struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	TokenID    uuid.UUID              `gorm:"column:token_id;type:uuid;not null"`
	OfferID    uuid.UUID              `gorm:"column:offer_id;type:uuid;not null;index:idx_redemptions_offer_ts,priority:1"`
	MerchantID uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;index"`
	Method     enums.RedemptionMethod `gorm:"column:method;type:text;not null"`
	Location   string                 `gorm:"column:location;type:text;not null"`
	Value      decimal.Decimal        `gorm:"column:value;type:numeric(12,2);not null"`
	RedeemedBy string                 `gorm:"column:redeemed_by;type:text;not null"`
	Timestamp  time.Time              `gorm:"column:timestamp;not null;index:idx_redemptions_offer_ts,priority:2"`
}

func (r *Redemption) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
