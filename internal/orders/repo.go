package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrders inserts the orders and their items in one statement batch.
func (r *repository) CreateOrders(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(orders).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the order and, on postgres, holds its row lock until
// the transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := query.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) FindByGatewayOrderRef(ctx context.Context, ref string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_order_ref = ?", ref).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetGatewayOrderRef(ctx context.Context, ids []uuid.UUID, ref string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ?", ids).
		Update("gateway_order_ref", ref).Error
}

// ListUnpaidGatewayOrdersBefore returns gateway-settled orders still waiting
// for payment that were placed before cutoff and not yet flagged stale.
func (r *repository) ListUnpaidGatewayOrdersBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("is_paid = ?", false).
		Where("status = ?", enums.OrderStatusPlaced).
		Where("payment_method IN ?", []enums.PaymentMethod{enums.PaymentMethodStripe, enums.PaymentMethodRazorpay}).
		Where("payment_stale_at IS NULL").
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// ListPendingRefunds returns orders owing the buyer a refund.
func (r *repository) ListPendingRefunds(ctx context.Context, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("refund_status = ?", enums.RefundStatusPending).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}
