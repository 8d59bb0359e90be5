package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a store listing. Quantity is the inventory ledger and never goes
// negative.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	MRPCents    int64     `gorm:"column:mrp_cents;not null"`
	Quantity    int       `gorm:"column:quantity;not null;default:0;check:quantity >= 0"`
	TotalSold   int       `gorm:"column:total_sold;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
