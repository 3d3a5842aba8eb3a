package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Repository handles redemption token persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to token operations.
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

func (r *Repository) Create(ctx context.Context, token *models.RedemptionToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RedemptionToken, error) {
	var token models.RedemptionToken
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// FindByShortCode expects an already uppercased code.
func (r *Repository) FindByShortCode(ctx context.Context, code string) (*models.RedemptionToken, error) {
	var token models.RedemptionToken
	if err := r.db.WithContext(ctx).
		Where("short_code = ?", code).
		Order("created_at ASC").
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// FindForOffer returns the oldest token minted for the offer.
func (r *Repository) FindForOffer(ctx context.Context, offerID uuid.UUID) (*models.RedemptionToken, error) {
	var token models.RedemptionToken
	if err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("created_at ASC").
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ShortCodeExists reports whether any token already carries code.
func (r *Repository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("short_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOffer returns the newest tokens for an offer, optionally filtered by status.
func (r *Repository) ListByOffer(ctx context.Context, offerID uuid.UUID, status *enums.TokenStatus, limit int) ([]models.RedemptionToken, error) {
	query := r.db.WithContext(ctx).Where("offer_id = ?", offerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.RedemptionToken
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Refresh reactivates a token as universal with a new expiry.
func (r *Repository) Refresh(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.TokenStatusActive,
			"expires_at":   expiresAt,
			"is_universal": true,
		}).Error
}

// MarkUniversalUsed records the latest use of a reusable token.
func (r *Repository) MarkUniversalUsed(ctx context.Context, id uuid.UUID, location string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_redeemed_at":          at,
			"last_redeemed_by_location": location,
		}).Error
}

// MarkLegacyRedeemed consumes a single-use token. It returns false when the
// token was no longer active, which means a concurrent redeem won.
func (r *Repository) MarkLegacyRedeemed(ctx context.Context, id uuid.UUID, location string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("id = ? AND status = ?", id, enums.TokenStatusActive).
		Updates(map[string]any{
			"status":               enums.TokenStatusRedeemed,
			"redeemed_at":          at,
			"redeemed_by_location": location,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireStale flips active tokens whose expiry has passed.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("status = ? AND expires_at < ?", enums.TokenStatusActive, now).
		Update("status", enums.TokenStatusExpired)
	return res.RowsAffected, res.Error
}

// ExpireActiveForOffers expires every active token belonging to offerIDs.
func (r *Repository) ExpireActiveForOffers(ctx context.Context, offerIDs []uuid.UUID) (int64, error) {
	if len(offerIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.RedemptionToken{}).
		Where("offer_id IN ? AND status = ?", offerIDs, enums.TokenStatusActive).
		Update("status", enums.TokenStatusExpired)
	return res.RowsAffected, res.Error
}
