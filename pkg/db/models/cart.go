package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Cart is the buyer's active cart snapshot. Writes replace the whole row.
type Cart struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Items     types.CartLines `gorm:"column:items;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
