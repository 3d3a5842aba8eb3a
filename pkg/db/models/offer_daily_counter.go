package models

import "github.com/google/uuid"

// OfferDailyCounter holds the committed redemption count for an offer on one
// UTC day. Day is formatted as YYYY-MM-DD.
type OfferDailyCounter struct {
	OfferID uuid.UUID `gorm:"column:offer_id;type:uuid;primaryKey"`
	Day     string    `gorm:"column:day;type:varchar(10);primaryKey"`
	Count   int       `gorm:"column:count;not null;default:0"`
}
