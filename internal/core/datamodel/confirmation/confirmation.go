package confirmation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// PurchaseConfirmation is an outbox row for the purchase confirmation email.
type PurchaseConfirmation struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID      `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CustomerID uuid.UUID      `gorm:"column:customer_id;type:uuid;not null"`
	Email      string         `gorm:"column:email;not null"`
	Payload    datatypes.JSON `gorm:"column:payload;not null"`
	Status     string         `gorm:"column:status;not null;default:pending;index"`
	Attempts   int            `gorm:"column:attempts;not null;default:0"`
	LastError  *string        `gorm:"column:last_error"`
	SentAt     *time.Time     `gorm:"column:sent_at"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (PurchaseConfirmation) TableName() string {
	return "purchase_confirmations"
}
