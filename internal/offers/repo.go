package offers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Repository handles offer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to offer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindByIDs loads every offer in ids. Missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Offer
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListFilter narrows an offer listing.
type ListFilter struct {
	MerchantID *uuid.UUID
	Status     *enums.OfferStatus
	Limit      int
	Offset     int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var rows []models.Offer
	if err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves every column of the offer.
func (r *Repository) Update(ctx context.Context, offer *models.Offer) error {
	if offer == nil {
		return fmt.Errorf("offer is required")
	}
	return r.db.WithContext(ctx).Save(offer).Error
}

func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// IDsByMerchant returns the ids of every offer of the merchant, whatever its status.
func (r *Repository) IDsByMerchant(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("merchant_id = ?", merchantID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// PauseActiveByMerchant pauses the merchant's active offers and reports how many changed.
func (r *Repository) PauseActiveByMerchant(ctx context.Context, merchantID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("merchant_id = ? AND status = ?", merchantID, enums.OfferStatusActive).
		Update("status", enums.OfferStatusPaused)
	return res.RowsAffected, res.Error
}
