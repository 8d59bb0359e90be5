package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads buyer accounts. Accounts are created by the identity
// service, never here.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: db.Pick(tx, r.conn)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return db.First[models.User](ctx, r.conn, "id = ?", id)
}

// HasOrders reports whether the user has any order at all, used for
// first-order coupon eligibility.
func (r *Repository) HasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	return db.Exists[models.Order](ctx, r.conn, "user_id = ?", id)
}
