package merchants

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Repository persists merchants. Rows are never physically deleted.
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

func (r *Repository) Create(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// List returns merchants oldest first. Deleted merchants are skipped unless
// includeDeleted is set.
func (r *Repository) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]models.Merchant, error) {
	q := r.db.WithContext(ctx).Model(&models.Merchant{})
	if !includeDeleted {
		q = q.Where("status = ?", enums.MerchantStatusActive)
	}
	var rows []models.Merchant
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}

// MarkDeleted flips an active merchant to deleted. It reports false when the
// merchant was not active.
func (r *Repository) MarkDeleted(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ? AND status = ?", id, enums.MerchantStatusActive).
		Updates(map[string]any{
			"status":     enums.MerchantStatusDeleted,
			"deleted_at": at,
			"deleted_by": by,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Restore clears the deletion metadata of a merchant.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.MerchantStatusActive,
			"deleted_at": nil,
			"deleted_by": nil,
		}).Error
}
