package redemptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
)

// ListFilter narrows a redemption listing. Nil ids are not filtered on.
type ListFilter struct {
	MerchantID *uuid.UUID
	OfferID    *uuid.UUID
	Limit      int
	Offset     int
}

// Repository persists redemptions. Rows are insert-only.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

// List returns redemptions newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Redemption, error) {
	q := r.db.WithContext(ctx).Model(&models.Redemption{})
	if filter.MerchantID != nil {
		q = q.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.OfferID != nil {
		q = q.Where("offer_id = ?", *filter.OfferID)
	}
	var rows []models.Redemption
	if err := q.Order("timestamp DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
