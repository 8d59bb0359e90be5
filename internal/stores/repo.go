package stores

import (
	"context"

	"github.com/google/uuid"
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

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: db.Pick(tx, r.conn)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return db.First[models.Store](ctx, r.conn, "id = ?", id)
}

// IsOwner reports whether userID owns storeID, inside tx when one is given.
func (r *Repository) IsOwner(ctx context.Context, tx *gorm.DB, storeID, userID uuid.UUID) (bool, error) {
	return db.Exists[models.Store](ctx, db.Pick(tx, r.conn), "id = ? AND owner_id = ?", storeID, userID)
}
