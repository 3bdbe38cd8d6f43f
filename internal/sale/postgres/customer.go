package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/subscription-sales/internal/core/database"
	customerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/customer"
	sellerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/seller"
	"github.com/frahmantamala/subscription-sales/internal/sale"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) sale.CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customerDatamodel.Customer, error) {
	var customer customerDatamodel.Customer
	err := database.FromContext(ctx, r.db).Where("email = ?", email).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sale.ErrRecordNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Create(ctx context.Context, customer *customerDatamodel.Customer) error {
	return database.FromContext(ctx, r.db).Create(customer).Error
}

// SetGatewayCustomerID only fills an empty gateway id.
func (r *CustomerRepository) SetGatewayCustomerID(ctx context.Context, id uuid.UUID, gatewayCustomerID string) error {
	return database.FromContext(ctx, r.db).
		Model(&customerDatamodel.Customer{}).
		Where("id = ? AND gateway_customer_id IS NULL", id).
		Update("gateway_customer_id", gatewayCustomerID).Error
}

type SellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&sellerDatamodel.Seller{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *SellerRepository) Create(ctx context.Context, seller *sellerDatamodel.Seller) error {
	return database.FromContext(ctx, r.db).Create(seller).Error
}
