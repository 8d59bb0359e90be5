package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads buyer addresses. Authoring lives outside this service.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: db.Pick(tx, r.conn)}
}

// FindForUser loads the address only when it belongs to userID, so another
// buyer's address id reads as not found.
func (r *Repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	return db.First[models.Address](ctx, r.conn, "id = ? AND user_id = ?", id, userID)
}
