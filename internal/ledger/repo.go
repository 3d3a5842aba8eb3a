package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.LedgerEntry, error)
	ExportRows(ctx context.Context, merchantID uuid.UUID) ([]ExportRow, error)
}

// ExportRow is one ledger entry joined with its offer name and redemption location.
// OfferName is nil when the offer row no longer exists.
type ExportRow struct {
	CreatedAt    time.Time
	OfferName    *string
	RedemptionID uuid.UUID
	Amount       decimal.Decimal
	Location     *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ExportRows(ctx context.Context, merchantID uuid.UUID) ([]ExportRow, error) {
	var rows []ExportRow
	err := r.db.WithContext(ctx).
		Table("ledger_entries").
		Select("ledger_entries.created_at AS created_at, offers.name AS offer_name, "+
			"ledger_entries.redemption_id AS redemption_id, ledger_entries.amount AS amount, "+
			"redemptions.location AS location").
		Joins("LEFT JOIN offers ON offers.id = ledger_entries.offer_id").
		Joins("LEFT JOIN redemptions ON redemptions.id = ledger_entries.redemption_id").
		Where("ledger_entries.merchant_id = ?", merchantID).
		Order("ledger_entries.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
