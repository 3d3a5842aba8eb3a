package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// User mirrors an identity-provider account and the role granted to it.
// ID is the provider uid.
type User struct {
	ID         string           `gorm:"column:id;type:text;primaryKey"`
	Email      string           `gorm:"column:email;type:text;not null;index"`
	Role       *enums.Role      `gorm:"column:role;type:text"`
	MerchantID *uuid.UUID       `gorm:"column:merchant_id;type:uuid;index"`
	IsPrimary  bool             `gorm:"column:is_primary;not null;default:false"`
	Status     enums.UserStatus `gorm:"column:status;type:text;not null"`
	CreatedBy  *string          `gorm:"column:created_by;type:text"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
