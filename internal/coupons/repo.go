package coupons

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// WithTx scopes the repository to tx; a nil tx keeps the base connection.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: db.Pick(tx, r.conn)}
}

// FindByCode looks the coupon up by its normalized code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return db.First[models.Coupon](ctx, r.conn, "code = ?", NormalizeCode(code))
}

// NormalizeCode trims and upper-cases a code as typed by the buyer.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
