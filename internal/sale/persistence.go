package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

// PersistenceCoordinator writes orders and transactions. It never begins or
// ends a transaction; callers bind one to ctx.
type PersistenceCoordinator struct {
	orders       OrderRepository
	transactions TransactionRepository
	now          func() time.Time
}

func NewPersistenceCoordinator(orders OrderRepository, transactions TransactionRepository) *PersistenceCoordinator {
	return &PersistenceCoordinator{
		orders:       orders,
		transactions: transactions,
		now:          time.Now,
	}
}

// CreatePendingOrder inserts order in the waiting-payment state.
func (p *PersistenceCoordinator) CreatePendingOrder(ctx context.Context, order *saleDatamodel.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := p.now()
	order.SubscriptionStatus = taxonomy.SubscriptionWaitingPayment
	order.RawStatus = nil
	order.StatusDescription = saleDatamodel.InitialStatusDescription
	order.ExternalSubscriptionID = nil
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := p.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("failed to create pending order: %w", err)
	}
	return nil
}

// FinalizeOrder updates the status fields of an order that already exists.
func (p *PersistenceCoordinator) FinalizeOrder(ctx context.Context, order *saleDatamodel.Order) error {
	if order.ID == uuid.Nil {
		return fmt.Errorf("cannot finalize an order that was never created")
	}
	order.UpdatedAt = p.now()

	if err := p.orders.UpdateStatus(ctx, order); err != nil {
		return fmt.Errorf("failed to finalize order %s: %w", order.ID, err)
	}
	return nil
}

func (p *PersistenceCoordinator) AppendTransaction(ctx context.Context, transaction *saleDatamodel.Transaction) error {
	transaction.ID = uuid.New()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = p.now()
	}
	transaction.UpdatedAt = transaction.CreatedAt

	if err := p.transactions.Create(ctx, transaction); err != nil {
		return fmt.Errorf("failed to append transaction to order %s: %w", transaction.OrderID, err)
	}
	return nil
}
