package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry records the amount owed to a merchant for one redemption.
// Entries are append-only and map 1:1 to redemptions.
type LedgerEntry struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID   uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null;index"`
	RedemptionID uuid.UUID       `gorm:"column:redemption_id;type:uuid;not null;uniqueIndex"`
	OfferID      uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
