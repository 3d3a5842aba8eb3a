package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Repository exposes user persistence operations. Users are keyed by the
// identity provider uid.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a user by uid.
func (r *Repository) FindByID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", uid).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert writes the role grant for a user, creating the row when missing.
// is_primary is only ever set on insert so a re-grant cannot demote the
// primary owner.
func (r *Repository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "role", "merchant_id", "status", "created_by", "updated_at",
			}),
		}).
		Create(user).Error
}

// List returns users in creation order, optionally filtered by merchant.
func (r *Repository) List(ctx context.Context, merchantID *uuid.UUID, limit, offset int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if merchantID != nil {
		q = q.Where("merchant_id = ?", *merchantID)
	}
	var rows []models.User
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IDsByMerchant returns the uids still attached to merchantID.
func (r *Repository) IDsByMerchant(ctx context.Context, merchantID uuid.UUID) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("merchant_id = ?", merchantID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// OrphanByMerchant flags every user of merchantID as orphaned.
func (r *Repository) OrphanByMerchant(ctx context.Context, merchantID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("merchant_id = ?", merchantID).
		Updates(map[string]any{
			"status":     enums.UserStatusOrphaned,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkDeleted soft deletes a user and strips its role.
func (r *Repository) MarkDeleted(ctx context.Context, uid string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", uid).
		Updates(map[string]any{
			"status":      enums.UserStatusDeleted,
			"role":        nil,
			"merchant_id": nil,
			"updated_at":  at,
		}).Error
}

// PendingRoleRepository stores invitations for emails without an identity.
type PendingRoleRepository struct {
	db *gorm.DB
}

func NewPendingRoleRepository(db *gorm.DB) *PendingRoleRepository {
	return &PendingRoleRepository{db: db}
}

func (r *PendingRoleRepository) WithTx(tx *gorm.DB) *PendingRoleRepository {
	if tx == nil {
		return r
	}
	return &PendingRoleRepository{db: tx}
}

func (r *PendingRoleRepository) Create(ctx context.Context, pending *models.PendingRole) error {
	return r.db.WithContext(ctx).Create(pending).Error
}

// FirstUnclaimed returns the oldest unclaimed invitation for email.
func (r *PendingRoleRepository) FirstUnclaimed(ctx context.Context, email string) (*models.PendingRole, error) {
	var pending models.PendingRole
	if err := r.db.WithContext(ctx).
		Where("email = ? AND claimed = ?", email, false).
		Order("created_at ASC").
		Take(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *PendingRoleRepository) MarkClaimed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingRole{}).
		Where("id = ?", id).
		Update("claimed", true).Error
}

// ListOpen returns unclaimed invitations that have not expired at now.
func (r *PendingRoleRepository) ListOpen(ctx context.Context, merchantID *uuid.UUID, now time.Time) ([]models.PendingRole, error) {
	q := r.db.WithContext(ctx).
		Where("claimed = ? AND expires_at > ?", false, now)
	if merchantID != nil {
		q = q.Where("merchant_id = ?", *merchantID)
	}
	var rows []models.PendingRole
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CancelByMerchant marks every unclaimed invitation for merchantID as claimed
// so it can no longer be redeemed.
func (r *PendingRoleRepository) CancelByMerchant(ctx context.Context, merchantID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PendingRole{}).
		Where("merchant_id = ? AND claimed = ?", merchantID, false).
		Update("claimed", true)
	return res.RowsAffected, res.Error
}
