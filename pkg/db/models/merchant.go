package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/boost-backend/pkg/db/types"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// Merchant is a business that publishes offers. Merchants are soft deleted only.
type Merchant struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name         string               `gorm:"column:name;type:text;not null"`
	ContactEmail string               `gorm:"column:contact_email;type:text;not null"`
	Locations    dbtypes.StringList   `gorm:"column:locations;type:jsonb;not null"`
	Status       enums.MerchantStatus `gorm:"column:status;type:text;not null;index"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    *time.Time           `gorm:"column:deleted_at"`
	DeletedBy    *string              `gorm:"column:deleted_by;type:text"`
}

func (m *Merchant) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
