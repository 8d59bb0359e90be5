package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a buyer-owned shipping destination.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null"`
	Phone      *string   `gorm:"column:phone"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
