package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSaleCompleted = "sale.completed"
	EventTypeSaleFailed    = "sale.failed"
)

// SaleCompletedEvent is raised after an order was committed with a successful subscription.
type SaleCompletedEvent struct {
	BaseEvent
	OrderID                string  `json:"order_id"`
	CustomerID             string  `json:"customer_id"`
	CustomerName           string  `json:"customer_name"`
	CustomerEmail          string  `json:"customer_email"`
	NewCustomer            bool    `json:"new_customer"`
	SellerID               string  `json:"seller_id,omitempty"`
	PlanDescription        string  `json:"plan_description"`
	Quantity               int     `json:"quantity"`
	Total                  string  `json:"total"`
	Status                 string  `json:"status"`
	ExternalSubscriptionID string  `json:"external_subscription_id,omitempty"`
	PaymentStatus          *string `json:"payment_status,omitempty"`
}

type SaleCompletedData struct {
	OrderID                string
	CustomerID             string
	CustomerName           string
	CustomerEmail          string
	NewCustomer            bool
	SellerID               string
	PlanDescription        string
	Quantity               int
	Total                  string
	Status                 string
	ExternalSubscriptionID string
	PaymentStatus          *string
}

func NewSaleCompletedEvent(data SaleCompletedData) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSaleCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":                 data.OrderID,
				"customer_id":              data.CustomerID,
				"customer_email":           data.CustomerEmail,
				"new_customer":             data.NewCustomer,
				"seller_id":                data.SellerID,
				"total":                    data.Total,
				"status":                   data.Status,
				"external_subscription_id": data.ExternalSubscriptionID,
			},
		},
		OrderID:                data.OrderID,
		CustomerID:             data.CustomerID,
		CustomerName:           data.CustomerName,
		CustomerEmail:          data.CustomerEmail,
		NewCustomer:            data.NewCustomer,
		SellerID:               data.SellerID,
		PlanDescription:        data.PlanDescription,
		Quantity:               data.Quantity,
		Total:                  data.Total,
		Status:                 data.Status,
		ExternalSubscriptionID: data.ExternalSubscriptionID,
		PaymentStatus:          data.PaymentStatus,
	}
}

type SaleFailedEvent struct {
	BaseEvent
	OrderID       string `json:"order_id,omitempty"`
	CustomerEmail string `json:"customer_email"`
	ErrorCode     string `json:"error_code"`
	Message       string `json:"message"`
}

func NewSaleFailedEvent(orderID, customerEmail, errorCode, message string) *SaleFailedEvent {
	return &SaleFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSaleFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"customer_email": customerEmail,
				"error_code":     errorCode,
				"message":        message,
			},
		},
		OrderID:       orderID,
		CustomerEmail: customerEmail,
		ErrorCode:     errorCode,
		Message:       message,
	}
}
