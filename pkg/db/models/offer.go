package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Offer is a discount published by a merchant and limited by a daily cap.
type Offer struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID         uuid.UUID         `gorm:"column:merchant_id;type:uuid;not null;index"`
	Name               string            `gorm:"column:name;type:text;not null"`
	DiscountText       string            `gorm:"column:discount_text;type:text;not null"`
	Terms              *string           `gorm:"column:terms;type:text"`
	CapDaily           int               `gorm:"column:cap_daily;not null"`
	ActiveHours        *string           `gorm:"column:active_hours;type:text"`
	ValuePerRedemption decimal.Decimal   `gorm:"column:value_per_redemption;type:numeric(12,2);not null"`
	Status             enums.OfferStatus `gorm:"column:status;type:text;not null;index"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
