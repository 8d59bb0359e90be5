package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrders(ctx context.Context, orders []*models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	FindByGatewayOrderRef(ctx context.Context, ref string) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetGatewayOrderRef(ctx context.Context, ids []uuid.UUID, ref string) error
	ListUnpaidGatewayOrdersBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListPendingRefunds(ctx context.Context, limit int) ([]models.Order, error)
}

// StoreOwnership answers whether a user owns a store. tx may be nil.
type StoreOwnership interface {
	IsOwner(ctx context.Context, tx *gorm.DB, storeID, userID uuid.UUID) (bool, error)
}

// DeliveryCodeIssuer sends the first delivery code once an order enters
// DELIVERY_INITIATED.
type DeliveryCodeIssuer interface {
	IssueInitial(ctx context.Context, orderID uuid.UUID) error
}
