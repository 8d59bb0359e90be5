package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots quantity and unit price at checkout. Rows are immutable.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.PriceCents * int64(i.Quantity)
}
