package redemptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

const (
	MaxLocationLength = 100

	MsgSuccess         = "Redemption successful!"
	MsgAlreadyRedeemed = "This code has already been redeemed"
	MsgExpired         = "This code has expired"
	MsgOfferInactive   = "This offer is no longer active"
	MsgCapReached      = "Daily redemption limit reached for this offer"
)

// RedeemInput is what staff submit at the point of sale. Token is either a
// full token id or a short code.
type RedeemInput struct {
	Token    string                 `json:"token"`
	Location string                 `json:"location"`
	Method   enums.RedemptionMethod `json:"method"`
}

// Outcome is the business result of a redeem. Soft failures are outcomes with
// Success false and a Reason; hard failures are returned as errors instead.
type Outcome struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	Reason       enums.RedemptionResult `json:"reason,omitempty"`
	OfferName    string                 `json:"offer_name,omitempty"`
	DiscountText string                 `json:"discount_text,omitempty"`
	RedemptionID *uuid.UUID             `json:"redemption_id,omitempty"`
}

func softOutcome(reason enums.RedemptionResult, message string) *Outcome {
	return &Outcome{Success: false, Message: message, Reason: reason}
}

type RedemptionDTO struct {
	ID         uuid.UUID              `json:"id"`
	TokenID    uuid.UUID              `json:"token_id"`
	OfferID    uuid.UUID              `json:"offer_id"`
	MerchantID uuid.UUID              `json:"merchant_id"`
	Method     enums.RedemptionMethod `json:"method"`
	Location   string                 `json:"location"`
	Value      decimal.Decimal        `json:"value"`
	RedeemedBy string                 `json:"redeemed_by"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ListInput is the caller-supplied filter for List.
type ListInput struct {
	MerchantID *uuid.UUID
	OfferID    *uuid.UUID
	Limit      int
	Offset     int
}

type ListResult struct {
	Redemptions []RedemptionDTO `json:"redemptions"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
}

func FromModel(r models.Redemption) RedemptionDTO {
	return RedemptionDTO{
		ID:         r.ID,
		TokenID:    r.TokenID,
		OfferID:    r.OfferID,
		MerchantID: r.MerchantID,
		Method:     r.Method,
		Location:   r.Location,
		Value:      r.Value,
		RedeemedBy: r.RedeemedBy,
		Timestamp:  r.Timestamp,
	}
}
