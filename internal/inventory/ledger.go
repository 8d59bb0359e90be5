package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ErrInsufficientStock is returned when a guarded decrement matches no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// Ledger owns every mutation of products.quantity. Decrements are a single
// guarded UPDATE so two concurrent checkouts can never both take the last
// unit.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// FindProducts loads the products keyed by id. Missing ids are simply absent.
func (l *Ledger) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := l.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Decrement takes qty units of productID and credits total_sold.
func (l *Ledger) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}
	res := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"total_sold": gorm.Expr("total_sold + ?", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Restore returns qty units of productID. total_sold never drops below zero.
func (l *Ledger) Restore(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", qty)
	}
	res := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"total_sold": gorm.Expr("CASE WHEN total_sold >= ? THEN total_sold - ? ELSE 0 END", qty, qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
