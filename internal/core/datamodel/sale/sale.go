package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

const (
	InitialStatusDescription  = "Aguardando criação da subscription"
	PaymentMethodSubscription = "SUBSCRIPTION"
)

// Order is one purchase attempt. Plan fields are a snapshot taken at sale time.
type Order struct {
	ID                     uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID             uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	SellerID               *uuid.UUID                  `gorm:"column:seller_id;type:uuid;index"`
	PlanID                 uuid.UUID                   `gorm:"column:plan_id;type:uuid;not null"`
	Quantity               int                         `gorm:"column:quantity;not null"`
	PlanPrice              decimal.Decimal             `gorm:"column:plan_price;type:numeric(12,2);not null"`
	PlanDescription        string                      `gorm:"column:plan_description;not null"`
	PlanCode               string                      `gorm:"column:plan_code;not null"`
	Total                  decimal.Decimal             `gorm:"column:total;type:numeric(12,2);not null"`
	SubscriptionStatus     taxonomy.SubscriptionStatus `gorm:"column:subscription_status;not null"`
	RawStatus              *string                     `gorm:"column:raw_status"`
	StatusDescription      string                      `gorm:"column:status_description"`
	ExternalSubscriptionID *string                     `gorm:"column:external_subscription_id"`
	GatewayResponse        datatypes.JSON              `gorm:"column:gateway_response"`
	CreatedAt              time.Time                   `gorm:"column:created_at"`
	UpdatedAt              time.Time                   `gorm:"column:updated_at"`

	Transactions []Transaction `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// Transaction is an append-only payment event reported by the gateway for an order.
type Transaction struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID               uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	Amount                decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate           time.Time               `gorm:"column:payment_date;not null"`
	PaymentStatus         *taxonomy.PaymentStatus `gorm:"column:payment_status"`
	RawStatus             string                  `gorm:"column:raw_status"`
	StatusDescription     string                  `gorm:"column:status_description"`
	ExternalTransactionID *string                 `gorm:"column:external_transaction_id"`
	PaymentMethod         string                  `gorm:"column:payment_method;not null"`
	CreatedAt             time.Time               `gorm:"column:created_at"`
	UpdatedAt             time.Time               `gorm:"column:updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
