package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// RedemptionRecordedEvent is emitted once per committed redemption.
type RedemptionRecordedEvent struct {
	RedemptionID  uuid.UUID              `json:"redemption_id"`
	LedgerEntryID uuid.UUID              `json:"ledger_entry_id"`
	TokenID       uuid.UUID              `json:"token_id"`
	OfferID       uuid.UUID              `json:"offer_id"`
	MerchantID    uuid.UUID              `json:"merchant_id"`
	Method        enums.RedemptionMethod `json:"method"`
	Location      string                 `json:"location"`
	Amount        decimal.Decimal        `json:"amount"`
	RedeemedBy    string                 `json:"redeemed_by"`
	RedeemedAt    time.Time              `json:"redeemed_at"`
}

// MerchantDeletedEvent summarises a merchant deletion cascade.
type MerchantDeletedEvent struct {
	MerchantID            uuid.UUID `json:"merchant_id"`
	DeletedBy             string    `json:"deleted_by"`
	DeletedAt             time.Time `json:"deleted_at"`
	OrphanedUsers         int       `json:"orphaned_users"`
	PausedOffers          int       `json:"paused_offers"`
	ExpiredTokens         int       `json:"expired_tokens"`
	CancelledPendingRoles int       `json:"cancelled_pending_roles"`
}
