package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/subscription-sales/internal/sale"
)

const listSalesQuery = `
SELECT o.id, c.name AS customer_name, c.email AS customer_email, o.seller_id,
       o.plan_code, o.plan_description, o.quantity, o.total, o.subscription_status,
       o.raw_status, o.status_description, o.external_subscription_id, o.created_at
FROM orders o
JOIN customers c ON c.id = o.customer_id
`

// SalesQuery is the sqlx read model behind the back-office listings.
type SalesQuery struct {
	db *sqlx.DB
}

func NewSalesQuery(db *sqlx.DB) sale.QueryAPI {
	return &SalesQuery{db: db}
}

func (q *SalesQuery) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]sale.OrderSummary, error) {
	return q.list(ctx, "o.seller_id = ?", sellerID, limit, offset)
}

func (q *SalesQuery) ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]sale.OrderSummary, error) {
	return q.list(ctx, "c.email = ?", email, limit, offset)
}

func (q *SalesQuery) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]sale.OrderSummary, error) {
	query := q.db.Rebind(listSalesQuery + "WHERE " + where + " ORDER BY o.created_at DESC LIMIT ? OFFSET ?")

	var summaries []sale.OrderSummary
	if err := q.db.SelectContext(ctx, &summaries, query, arg, limit, offset); err != nil {
		return nil, err
	}
	return summaries, nil
}
