package merchants

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

const (
	MaxNameLength     = 100
	MaxLocations      = 50
	MaxLocationLength = 200
)

type MerchantDTO struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	ContactEmail string               `json:"email"`
	Locations    []string             `json:"locations"`
	Status       enums.MerchantStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	DeletedAt    *time.Time           `json:"deleted_at"`
	DeletedBy    *string              `json:"deleted_by"`
}

type CreateInput struct {
	Name         string   `json:"name"`
	ContactEmail string   `json:"email"`
	Locations    []string `json:"locations"`
}

// UpdateInput holds the fields to change. Nil fields are left untouched.
type UpdateInput struct {
	Name         *string   `json:"name"`
	ContactEmail *string   `json:"email"`
	Locations    *[]string `json:"locations"`
}

type ListInput struct {
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type ListResult struct {
	Merchants []MerchantDTO `json:"merchants"`
	Limit     int           `json:"limit"`
	Offset    int           `json:"offset"`
}

// DeleteResult reports what the deletion cascade touched.
type DeleteResult struct {
	Deleted               bool      `json:"deleted"`
	ID                    uuid.UUID `json:"id"`
	OrphanedUsers         int       `json:"orphaned_users"`
	PausedOffers          int       `json:"paused_offers"`
	ExpiredTokens         int       `json:"expired_tokens"`
	CancelledPendingRoles int       `json:"cancelled_pending_roles"`
}

func FromModel(m models.Merchant) MerchantDTO {
	locations := []string(m.Locations)
	if locations == nil {
		locations = []string{}
	}
	return MerchantDTO{
		ID:           m.ID,
		Name:         m.Name,
		ContactEmail: m.ContactEmail,
		Locations:    locations,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		DeletedAt:    m.DeletedAt,
		DeletedBy:    m.DeletedBy,
	}
}
