package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Repository persists the buyer's cart snapshot. Each write replaces the whole
// row; the last writer wins.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Get returns the cart lines for the user. A missing cart is empty.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (types.CartLines, error) {
	var row models.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.CartLines{}, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Items, nil
}

// Replace stores lines as the user's cart.
func (r *Repository) Replace(ctx context.Context, userID uuid.UUID, lines types.CartLines) error {
	if lines == nil {
		lines = types.CartLines{}
	}
	row := models.Cart{UserID: userID, Items: lines}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&row).Error
}

// Clear empties the cart. Clearing an empty or missing cart is a no-op and
// reports false.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) (bool, error) {
	lines, err := r.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(lines) == 0 {
		return false, nil
	}
	err = r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("items", types.CartLines{}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
