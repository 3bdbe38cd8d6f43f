package confirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	confirmationDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/confirmation"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
)

// Recorder stores a pending confirmation for every completed sale.
type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

func (r *Recorder) HandleSaleCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.SaleCompletedEvent)
	if !ok {
		r.logger.Error("invalid event type for sale completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected SaleCompletedEvent, got %T", event)
	}

	orderID, err := uuid.Parse(completed.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", completed.OrderID, err)
	}
	customerID, err := uuid.Parse(completed.CustomerID)
	if err != nil {
		return fmt.Errorf("invalid customer id %q: %w", completed.CustomerID, err)
	}

	payload, err := json.Marshal(Payload{
		OrderID:                completed.OrderID,
		CustomerName:           completed.CustomerName,
		CustomerEmail:          completed.CustomerEmail,
		NewCustomer:            completed.NewCustomer,
		PlanDescription:        completed.PlanDescription,
		Quantity:               completed.Quantity,
		Total:                  completed.Total,
		Status:                 completed.Status,
		ExternalSubscriptionID: completed.ExternalSubscriptionID,
		PaymentStatus:          completed.PaymentStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to encode confirmation payload: %w", err)
	}

	now := time.Now()
	record := &confirmationDatamodel.PurchaseConfirmation{
		ID:         uuid.New(),
		OrderID:    orderID,
		CustomerID: customerID,
		Email:      completed.CustomerEmail,
		Payload:    datatypes.JSON(payload),
		Status:     confirmationDatamodel.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.Create(ctx, record); err != nil {
		r.logger.Error("failed to store purchase confirmation",
			"error", err,
			"order_id", completed.OrderID,
			"event_id", completed.EventID())
		return fmt.Errorf("failed to store confirmation for order %s: %w", completed.OrderID, err)
	}

	r.logger.Info("purchase confirmation recorded",
		"order_id", completed.OrderID,
		"confirmation_id", record.ID)
	return nil
}

func (r *Recorder) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeSaleCompleted, r.HandleSaleCompleted)

	r.logger.Info("confirmation event handlers registered",
		"handlers", []string{events.EventTypeSaleCompleted})
}
