package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// RedemptionToken is the scannable or typeable handle for an offer.
// Universal tokens are reusable until they expire; legacy tokens are single use.
type RedemptionToken struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OfferID                uuid.UUID         `gorm:"column:offer_id;type:uuid;not null;index"`
	ShortCode              string            `gorm:"column:short_code;type:varchar(6);not null;index"`
	QRData                 string            `gorm:"column:qr_data;type:text;not null"`
	Status                 enums.TokenStatus `gorm:"column:status;type:text;not null"`
	IsUniversal            bool              `gorm:"column:is_universal;not null"`
	ExpiresAt              time.Time         `gorm:"column:expires_at;not null"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	RedeemedAt             *time.Time        `gorm:"column:redeemed_at"`
	RedeemedByLocation     *string           `gorm:"column:redeemed_by_location;type:text"`
	LastRedeemedAt         *time.Time        `gorm:"column:last_redeemed_at"`
	LastRedeemedByLocation *string           `gorm:"column:last_redeemed_by_location;type:text"`
}

func (RedemptionToken) TableName() string { return "redemption_tokens" }

func (t *RedemptionToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
