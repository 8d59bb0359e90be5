package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's subject. IsMember drives the shipping
// waiver and member-only coupons.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	IsMember  bool      `gorm:"column:is_member;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
