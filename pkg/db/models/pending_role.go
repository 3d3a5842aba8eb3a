package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/enums"
)

// PendingRole is an invitation for an email that has no identity yet.
type PendingRole struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email      string     `gorm:"column:email;type:text;not null;index"`
	Role       enums.Role `gorm:"column:role;type:text;not null"`
	MerchantID *uuid.UUID `gorm:"column:merchant_id;type:uuid;index"`
	CreatedBy  string     `gorm:"column:created_by;type:text;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	Claimed    bool       `gorm:"column:claimed;not null;default:false"`
}

func (p *PendingRole) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
