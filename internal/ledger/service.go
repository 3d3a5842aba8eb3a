// Package ledger reports the amount each merchant is owed for its redemptions.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/internal/access"
	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
)

// EntryDTO is one ledger entry in a summary.
type EntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	MerchantID   uuid.UUID       `json:"merchant_id"`
	RedemptionID uuid.UUID       `json:"redemption_id"`
	OfferID      uuid.UUID       `json:"offer_id"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Summary is the total owed to a merchant plus the entries behind it.
type Summary struct {
	MerchantID      uuid.UUID       `json:"merchant_id"`
	TotalOwed       decimal.Decimal `json:"total_owed"`
	RedemptionCount int             `json:"redemption_count"`
	Entries         []EntryDTO      `json:"entries"`
}

// Service exposes ledger reporting.
type Service interface {
	Summary(ctx context.Context, caller auth.Caller, merchantID *uuid.UUID) (*Summary, error)
	Export(ctx context.Context, caller auth.Caller, merchantID uuid.UUID) ([]ExportRow, error)
}

type service struct {
	repo Repository
}

// NewService returns a ledger service backed by repo.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context, caller auth.Caller, merchantID *uuid.UUID) (*Summary, error) {
	scope, err := access.ScopeMerchant(caller, merchantID)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant_id is required")
	}

	entries, err := s.repo.ListByMerchant(ctx, *scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	total := decimal.Zero
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		total = total.Add(e.Amount)
		out = append(out, fromModel(e))
	}
	return &Summary{
		MerchantID:      *scope,
		TotalOwed:       total.Round(2),
		RedemptionCount: len(entries),
		Entries:         out,
	}, nil
}

func (s *service) Export(ctx context.Context, caller auth.Caller, merchantID uuid.UUID) ([]ExportRow, error) {
	if err := access.RequireMerchantAdmin(caller, merchantID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ExportRows(ctx, merchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger export")
	}
	return rows, nil
}

func fromModel(e models.LedgerEntry) EntryDTO {
	return EntryDTO{
		ID:           e.ID,
		MerchantID:   e.MerchantID,
		RedemptionID: e.RedemptionID,
		OfferID:      e.OfferID,
		Amount:       e.Amount,
		CreatedAt:    e.CreatedAt,
	}
}
