package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a seller tenant. Every order belongs to exactly one store.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Email     *string   `gorm:"column:email"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
