package sale

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/frahmantamala/subscription-sales/internal"
	customerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/customer"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
)

const (
	MessageSaleCreated        = "Pedido criado com sucesso!"
	MessagePlanNotFound       = "Plano não encontrado"
	MessagePlanInactive       = "Plano inativo"
	MessageSellerNotFound     = "Vendedor não encontrado"
	MessageInvalidExpiry      = "Formato de data de validade inválido. Use MM/YY"
	MessageLookupFailed       = "Erro ao buscar cliente no gateway de pagamento"
	MessageCustomerFailed     = "Erro ao criar cliente no gateway de pagamento"
	MessageSubscriptionFailed = "Erro ao criar assinatura no gateway de pagamento"
	MessagePaymentRejected    = "Pagamento rejeitado. Verifique os dados e tente novamente."
	MessageProcessingFailed   = "Erro ao processar venda: "
)

// ErrRecordNotFound is returned by repositories when a lookup matches nothing.
var ErrRecordNotFound = errors.New("record not found")

type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*planDatamodel.Plan, error)
}

type SellerRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type CustomerRepository interface {
	GetByEmail(ctx context.Context, email string) (*customerDatamodel.Customer, error)
	Create(ctx context.Context, customer *customerDatamodel.Customer) error
	SetGatewayCustomerID(ctx context.Context, id uuid.UUID, gatewayCustomerID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *saleDatamodel.Order) error
	// UpdateStatus writes only the mutable status fields of an existing order.
	UpdateStatus(ctx context.Context, order *saleDatamodel.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *saleDatamodel.Transaction) error
}

// QueryAPI is the read model used by the back-office listings.
type QueryAPI interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]OrderSummary, error)
	ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]OrderSummary, error)
}

// Gateway is the subset of the payment gateway client used by a sale.
type Gateway interface {
	FindCustomersByEmail(ctx context.Context, email string) ([]gatewaytypes.Customer, error)
	CreateCustomer(ctx context.Context, req gatewaytypes.CustomerRequest) (*gatewaytypes.Customer, error)
	CreateSubscription(ctx context.Context, req gatewaytypes.SubscriptionRequest) (*gatewaytypes.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*gatewaytypes.Subscription, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EmailLocker serializes gateway customer resolution for one email across instances.
type EmailLocker interface {
	Lock(ctx context.Context, email string) (unlock func(), err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Card struct {
	Number     string
	Expiry     string
	CVV        string
	HolderName string
}

// Request is a purchase after local customer resolution.
type Request struct {
	CustomerID        uuid.UUID
	GatewayCustomerID string
	CustomerName      string
	Email             string
	Document          string
	Phone             string
	PlanID            uuid.UUID
	SellerID          *uuid.UUID
	Quantity          int
	Card              Card
	Description       string
}

// Result is the outcome of a sale. Business failures are reported here with
// Success false and Err set; they are not returned as Go errors.
type Result struct {
	Success           bool
	Message           string
	Order             *saleDatamodel.Order
	Err               *internal.AppError
	GatewayCustomerID string
	NewCustomer       bool
}

func succeeded(order *saleDatamodel.Order) Result {
	return Result{Success: true, Message: MessageSaleCreated, Order: order}
}

func failed(order *saleDatamodel.Order, appErr *internal.AppError) Result {
	return Result{Success: false, Message: appErr.Message, Order: order, Err: appErr}
}
