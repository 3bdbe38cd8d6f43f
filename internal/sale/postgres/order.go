package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/subscription-sales/internal/core/database"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/sale"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) sale.OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *saleDatamodel.Order) error {
	return database.FromContext(ctx, r.db).Omit(clause.Associations).Create(order).Error
}

// UpdateStatus never touches the snapshot or total columns, and keeps an
// external subscription id once one has been stored.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *saleDatamodel.Order) error {
	updates := map[string]interface{}{
		"subscription_status": order.SubscriptionStatus,
		"raw_status":          order.RawStatus,
		"status_description":  order.StatusDescription,
		"gateway_response":    order.GatewayResponse,
		"updated_at":          order.UpdatedAt,
	}
	if order.ExternalSubscriptionID != nil {
		updates["external_subscription_id"] = gorm.Expr("COALESCE(external_subscription_id, ?)", *order.ExternalSubscriptionID)
	}

	result := database.FromContext(ctx, r.db).
		Model(&saleDatamodel.Order{}).
		Where("id = ?", order.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sale.ErrRecordNotFound
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error) {
	var order saleDatamodel.Order
	err := database.FromContext(ctx, r.db).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sale.ErrRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) sale.TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create always inserts; transactions are append-only.
func (r *TransactionRepository) Create(ctx context.Context, transaction *saleDatamodel.Transaction) error {
	return database.FromContext(ctx, r.db).Create(transaction).Error
}
