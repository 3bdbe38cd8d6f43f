package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/subscription-sales/internal"
	"github.com/frahmantamala/subscription-sales/internal/core/common/validation"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

type CustomerDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Document   string `json:"document"`
	Phone      string `json:"phone,omitempty"`
	PersonType string `json:"person_type,omitempty"`
}

type CardDTO struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name"`
}

// CreateSaleDTO is the purchase request body.
type CreateSaleDTO struct {
	Customer    CustomerDTO `json:"customer"`
	PlanID      uuid.UUID   `json:"plan_id"`
	SellerID    *uuid.UUID  `json:"seller_id,omitempty"`
	Quantity    int         `json:"quantity"`
	Card        CardDTO     `json:"card"`
	Description string      `json:"description,omitempty"`
}

// Validate checks field shapes only. Plan, seller and expiry checks belong
// to the sale itself so they report their own error codes.
func (dto CreateSaleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("customer.name", dto.Customer.Name).Required().MaxLength(200)
	v.Field("customer.email", dto.Customer.Email).Required().Email().MaxLength(254)
	v.Field("customer.document", dto.Customer.Document).Required().Digits(11, 14, internal.ErrCodeValidationFailed)
	v.Field("plan_id", dto.PlanID).Required()
	v.Field("quantity", dto.Quantity).MinInt(1, internal.ErrCodeInvalidQuantity)
	v.Field("card.number", dto.Card.Number).Required().Digits(12, 19, internal.ErrCodeInvalidCard)
	v.Field("card.expiry", dto.Card.Expiry).Required()
	v.Field("card.cvv", dto.Card.CVV).Required().Digits(3, 4, internal.ErrCodeInvalidCard)
	v.Field("card.holder_name", dto.Card.HolderName).Required()
	v.Field("description", dto.Description).MaxLength(500)
	return v.Validate()
}

func (dto CreateSaleDTO) ToRequest() Request {
	sellerID := dto.SellerID
	if sellerID != nil && *sellerID == uuid.Nil {
		sellerID = nil
	}
	return Request{
		CustomerName: dto.Customer.Name,
		Email:        normalizeEmail(dto.Customer.Email),
		Document:     dto.Customer.Document,
		Phone:        dto.Customer.Phone,
		PlanID:       dto.PlanID,
		SellerID:     sellerID,
		Quantity:     dto.Quantity,
		Card: Card{
			Number:     dto.Card.Number,
			Expiry:     dto.Card.Expiry,
			CVV:        dto.Card.CVV,
			HolderName: dto.Card.HolderName,
		},
		Description: dto.Description,
	}
}

type TransactionResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentDate           time.Time       `json:"payment_date"`
	PaymentStatus         *string         `json:"payment_status"`
	RawStatus             string          `json:"raw_status"`
	StatusDescription     string          `json:"status_description"`
	ExternalTransactionID *string         `json:"external_transaction_id,omitempty"`
	PaymentMethod         string          `json:"payment_method"`
}

type OrderResponse struct {
	ID                     uuid.UUID             `json:"id"`
	CustomerID             uuid.UUID             `json:"customer_id"`
	SellerID               *uuid.UUID            `json:"seller_id,omitempty"`
	PlanID                 uuid.UUID             `json:"plan_id"`
	PlanCode               string                `json:"plan_code"`
	PlanDescription        string                `json:"plan_description"`
	PlanPrice              decimal.Decimal       `json:"plan_price"`
	Quantity               int                   `json:"quantity"`
	Total                  decimal.Decimal       `json:"total"`
	Status                 string                `json:"status"`
	RawStatus              *string               `json:"raw_status"`
	StatusDescription      string                `json:"status_description"`
	ExternalSubscriptionID *string               `json:"external_subscription_id,omitempty"`
	Transactions           []TransactionResponse `json:"transactions"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

func ToOrderResponse(order *saleDatamodel.Order) *OrderResponse {
	if order == nil {
		return nil
	}

	transactions := make([]TransactionResponse, 0, len(order.Transactions))
	for _, t := range order.Transactions {
		var status *string
		if t.PaymentStatus != nil {
			name := t.PaymentStatus.String()
			status = &name
		}
		transactions = append(transactions, TransactionResponse{
			ID:                    t.ID,
			Amount:                t.Amount,
			PaymentDate:           t.PaymentDate,
			PaymentStatus:         status,
			RawStatus:             t.RawStatus,
			StatusDescription:     t.StatusDescription,
			ExternalTransactionID: t.ExternalTransactionID,
			PaymentMethod:         t.PaymentMethod,
		})
	}

	return &OrderResponse{
		ID:                     order.ID,
		CustomerID:             order.CustomerID,
		SellerID:               order.SellerID,
		PlanID:                 order.PlanID,
		PlanCode:               order.PlanCode,
		PlanDescription:        order.PlanDescription,
		PlanPrice:              order.PlanPrice,
		Quantity:               order.Quantity,
		Total:                  order.Total,
		Status:                 order.SubscriptionStatus.String(),
		RawStatus:              order.RawStatus,
		StatusDescription:      order.StatusDescription,
		ExternalSubscriptionID: order.ExternalSubscriptionID,
		Transactions:           transactions,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
}

// SaleResponse is the body returned by the purchase endpoint for both outcomes.
type SaleResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Order   *OrderResponse     `json:"order,omitempty"`
	Error   *internal.AppError `json:"error,omitempty"`
}

func ToSaleResponse(result Result) SaleResponse {
	return SaleResponse{
		Success: result.Success,
		Message: result.Message,
		Order:   ToOrderResponse(result.Order),
		Error:   result.Err,
	}
}

// OrderSummary is a row of the back-office sales listing.
type OrderSummary struct {
	ID                     uuid.UUID                   `db:"id" json:"id"`
	CustomerName           string                      `db:"customer_name" json:"customer_name"`
	CustomerEmail          string                      `db:"customer_email" json:"customer_email"`
	SellerID               *uuid.UUID                  `db:"seller_id" json:"seller_id,omitempty"`
	PlanCode               string                      `db:"plan_code" json:"plan_code"`
	PlanDescription        string                      `db:"plan_description" json:"plan_description"`
	Quantity               int                         `db:"quantity" json:"quantity"`
	Total                  decimal.Decimal             `db:"total" json:"total"`
	SubscriptionStatus     taxonomy.SubscriptionStatus `db:"subscription_status" json:"-"`
	Status                 string                      `db:"-" json:"status"`
	RawStatus              *string                     `db:"raw_status" json:"raw_status"`
	StatusDescription      string                      `db:"status_description" json:"status_description"`
	ExternalSubscriptionID *string                     `db:"external_subscription_id" json:"external_subscription_id,omitempty"`
	CreatedAt              time.Time                   `db:"created_at" json:"created_at"`
}

type SalesListResponse struct {
	Sales []OrderSummary `json:"sales"`
}
