package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*List, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	DetachAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// List is one cursor page of orders.
type List struct {
	Orders     []models.Order
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC").Order("order_items.id ASC")
		}).
		First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByAccount pages through an account's orders, newest first.
func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*List, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("orders.account_id = ?", accountID)
	if cursor != nil {
		qb = qb.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	records := []models.Order{}
	err = qb.
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Preload("Items").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := &List{Orders: records}
	if len(records) > pageSize {
		result.Orders = records[:pageSize]
		last := result.Orders[len(result.Orders)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

// UpdateStatus moves the order from one status to another. Zero rows
// affected means the order was not in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// DetachAccount clears account_id on every order of a deleted account.
func (r *repository) DetachAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			"account_id": nil,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
