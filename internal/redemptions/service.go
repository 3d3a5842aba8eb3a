// Package redemptions runs the redeem flow and lists recorded redemptions.
package redemptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/internal/caps"
	"github.com/angelmondragon/boost-backend/internal/ledger"
	"github.com/angelmondragon/boost-backend/internal/tokens"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
	"github.com/angelmondragon/boost-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/boost-backend/pkg/pagination"
)

const resultError = "error"

var errCapReached = errors.New("daily cap reached")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tokenHandler interface {
	Resolve(ctx context.Context, input string) (*models.RedemptionToken, error)
	MarkRedeemed(ctx context.Context, tx *gorm.DB, token *models.RedemptionToken, location string, at time.Time) error
}

type offerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service redeems tokens and reads the redemption history.
type Service interface {
	Redeem(ctx context.Context, caller auth.Caller, input RedeemInput) (*Outcome, error)
	List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error)
}

// ServiceParams wires the redeem flow.
type ServiceParams struct {
	Tx      txRunner
	Repo    *Repository
	Tokens  tokenHandler
	Offers  offerLoader
	Caps    *caps.Counter
	Ledger  ledger.Repository
	Outbox  outboxPublisher
	Metrics *metrics.RedemptionMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	tx      txRunner
	repo    *Repository
	tokens  tokenHandler
	offers  offerLoader
	caps    *caps.Counter
	ledger  ledger.Repository
	outbox  outboxPublisher
	metrics *metrics.RedemptionMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService validates params and builds the redemption service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("redemption repository required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token service required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offer loader required")
	}
	if params.Caps == nil {
		return nil, fmt.Errorf("cap counter required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:      params.Tx,
		repo:    params.Repo,
		tokens:  params.Tokens,
		offers:  params.Offers,
		caps:    params.Caps,
		ledger:  params.Ledger,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// Redeem runs the ordered redemption checks and, when they pass, commits the
// redemption, its ledger entry, the token update and the outbox event together.
func (s *service) Redeem(ctx context.Context, caller auth.Caller, input RedeemInput) (*Outcome, error) {
	outcome, err := s.redeem(ctx, caller, input)
	if err != nil {
		s.metrics.IncOutcome(resultError)
		return nil, err
	}
	if outcome.Success {
		s.metrics.IncOutcome(enums.RedemptionResultSuccess.String())
		return outcome, nil
	}
	s.metrics.IncOutcome(outcome.Reason.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reason":   outcome.Reason.String(),
		"location": input.Location,
	})
	s.logg.Info(logCtx, "redeem rejected")
	return outcome, nil
}

func (s *service) redeem(ctx context.Context, caller auth.Caller, input RedeemInput) (*Outcome, error) {
	location := strings.TrimSpace(input.Location)
	if location == "" || utf8.RuneCountInString(location) > MaxLocationLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location must be between 1 and 100 characters")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method must be scan or manual")
	}

	now := s.now().UTC()

	token, err := s.tokens.Resolve(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if !token.IsUniversal && token.Status == enums.TokenStatusRedeemed {
		return softOutcome(enums.RedemptionResultAlreadyRedeemed, MsgAlreadyRedeemed), nil
	}
	if token.Status == enums.TokenStatusExpired || token.ExpiresAt.Before(now) {
		return softOutcome(enums.RedemptionResultExpired, MsgExpired), nil
	}

	offer, err := s.offers.FindByID(ctx, token.OfferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if err := access.RequireStaffOrAbove(caller, offer.MerchantID); err != nil {
		return nil, err
	}
	if offer.Status != enums.OfferStatusActive {
		return softOutcome(enums.RedemptionResultOfferInactive, MsgOfferInactive), nil
	}

	today, err := s.caps.CountToday(ctx, offer.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's redemptions")
	}
	if today >= offer.CapDaily {
		return softOutcome(enums.RedemptionResultCapReached, MsgCapReached), nil
	}

	redemption := &models.Redemption{
		TokenID:    token.ID,
		OfferID:    offer.ID,
		MerchantID: offer.MerchantID,
		Method:     input.Method,
		Location:   location,
		Value:      offer.ValuePerRedemption,
		RedeemedBy: caller.UID,
		Timestamp:  now,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reserved, err := s.caps.WithTx(tx).Reserve(ctx, offer.ID, offer.CapDaily, now)
		if err != nil {
			return err
		}
		if !reserved {
			return errCapReached
		}
		if err := s.repo.WithTx(tx).Create(ctx, redemption); err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}
		entry := &models.LedgerEntry{
			MerchantID:   offer.MerchantID,
			RedemptionID: redemption.ID,
			OfferID:      offer.ID,
			Amount:       redemption.Value,
			CreatedAt:    now,
		}
		if err := s.ledger.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		if err := s.tokens.MarkRedeemed(ctx, tx, token, location, now); err != nil {
			return err
		}
		return s.emitRecorded(ctx, tx, caller, redemption, entry)
	})
	switch {
	case errors.Is(err, errCapReached):
		return softOutcome(enums.RedemptionResultCapReached, MsgCapReached), nil
	case errors.Is(err, tokens.ErrAlreadyConsumed):
		return softOutcome(enums.RedemptionResultAlreadyRedeemed, MsgAlreadyRedeemed), nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit redemption")
	}

	id := redemption.ID
	return &Outcome{
		Success:      true,
		Message:      MsgSuccess,
		OfferName:    offer.Name,
		DiscountText: offer.DiscountText,
		RedemptionID: &id,
	}, nil
}

func (s *service) emitRecorded(ctx context.Context, tx *gorm.DB, caller auth.Caller, redemption *models.Redemption, entry *models.LedgerEntry) error {
	if s.outbox == nil {
		return nil
	}
	merchantID := redemption.MerchantID
	// Owners carry no merchant; the event is attributed to the offer's.
	actor := outbox.ActorFromCaller(caller)
	actor.MerchantID = &merchantID
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRedemptionRecorded,
		AggregateType: enums.AggregateRedemption,
		AggregateID:   redemption.ID,
		Actor:         actor,
		OccurredAt:    redemption.Timestamp,
		Data: payloads.RedemptionRecordedEvent{
			RedemptionID:  redemption.ID,
			LedgerEntryID: entry.ID,
			TokenID:       redemption.TokenID,
			OfferID:       redemption.OfferID,
			MerchantID:    redemption.MerchantID,
			Method:        redemption.Method,
			Location:      redemption.Location,
			Amount:        redemption.Value,
			RedeemedBy:    redemption.RedeemedBy,
			RedeemedAt:    redemption.Timestamp,
		},
	})
}

// List returns redemptions visible to caller, newest first.
func (s *service) List(ctx context.Context, caller auth.Caller, input ListInput) (*ListResult, error) {
	scope, err := access.ScopeMerchant(caller, input.MerchantID)
	if err != nil {
		return nil, err
	}
	page := pagination.Standard.Normalize(pagination.Params{Limit: input.Limit, Offset: input.Offset})

	rows, err := s.repo.List(ctx, ListFilter{
		MerchantID: scope,
		OfferID:    input.OfferID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}
	out := make([]RedemptionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return &ListResult{Redemptions: out, Limit: page.Limit, Offset: page.Offset}, nil
}
