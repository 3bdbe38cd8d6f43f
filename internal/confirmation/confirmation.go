// Package confirmation records purchase confirmations for completed sales and
// hands them to a delivery channel in the background.
package confirmation

import (
	"context"
	"time"

	"github.com/google/uuid"

	confirmationDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/confirmation"
)

// MaxAttempts is how many deliveries a confirmation gets before it is parked as failed.
const MaxAttempts = 5

// Payload is the content handed to the email pipeline.
type Payload struct {
	OrderID                string  `json:"order_id"`
	CustomerName           string  `json:"customer_name"`
	CustomerEmail          string  `json:"customer_email"`
	NewCustomer            bool    `json:"new_customer"`
	PlanDescription        string  `json:"plan_description"`
	Quantity               int     `json:"quantity"`
	Total                  string  `json:"total"`
	Status                 string  `json:"status"`
	ExternalSubscriptionID string  `json:"external_subscription_id,omitempty"`
	PaymentStatus          *string `json:"payment_status,omitempty"`
}

type RepositoryAPI interface {
	Create(ctx context.Context, c *confirmationDatamodel.PurchaseConfirmation) error
	ListPending(ctx context.Context, limit int) ([]*confirmationDatamodel.PurchaseConfirmation, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error
}

// Sender delivers one confirmation to the outside world.
type Sender interface {
	SendConfirmation(ctx context.Context, c *confirmationDatamodel.PurchaseConfirmation) error
}
