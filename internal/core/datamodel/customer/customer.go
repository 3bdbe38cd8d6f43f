package customer

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name              string     `gorm:"column:name;not null"`
	Email             string     `gorm:"column:email;not null;uniqueIndex"`
	Document          string     `gorm:"column:document"`
	Phone             string     `gorm:"column:phone"`
	PersonType        string     `gorm:"column:person_type"`
	SellerID          *uuid.UUID `gorm:"column:seller_id;type:uuid"`
	GatewayCustomerID *string    `gorm:"column:gateway_customer_id"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
