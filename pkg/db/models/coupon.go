package models

import "time"

// Coupon is read at checkout only; it is authored elsewhere.
type Coupon struct {
	Code             string    `gorm:"column:code;primaryKey"`
	Description      string    `gorm:"column:description;not null;default:''"`
	DiscountPercent  int       `gorm:"column:discount_percent;not null"`
	MaxDiscountCents *int64    `gorm:"column:max_discount_cents"`
	ForNewUser       bool      `gorm:"column:for_new_user;not null;default:false"`
	ForMember        bool      `gorm:"column:for_member;not null;default:false"`
	ExpiresAt        time.Time `gorm:"column:expires_at;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
