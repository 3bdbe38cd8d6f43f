package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/subscription-sales/internal"
	customerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/customer"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ServiceDeps struct {
	Transactor   Transactor
	Customers    CustomerRepository
	Orders       OrderRepository
	Query        QueryAPI
	Gateway      Gateway
	Orchestrator *Orchestrator
	Events       EventPublisher
}

// Service owns the transaction around a sale: the local customer lookup and
// the whole orchestration share one unit of work, committed whenever a
// Result comes back and rolled back on unexpected faults.
type Service struct {
	transactor   Transactor
	customers    CustomerRepository
	orders       OrderRepository
	query        QueryAPI
	gateway      Gateway
	orchestrator *Orchestrator
	events       EventPublisher
	logger       *slog.Logger
}

func NewService(deps ServiceDeps, logger *slog.Logger) *Service {
	return &Service{
		transactor:   deps.Transactor,
		customers:    deps.Customers,
		orders:       deps.Orders,
		query:        deps.Query,
		gateway:      deps.Gateway,
		orchestrator: deps.Orchestrator,
		events:       deps.Events,
		logger:       logger,
	}
}

func (s *Service) ProcessSale(ctx context.Context, dto CreateSaleDTO) Result {
	log := logger.FromOr(ctx, s.logger)

	if appErr := dto.Validate(); appErr != nil {
		log.Warn("sale request validation failed", "error", appErr.GetDetailedMessage())
		return failed(nil, appErr)
	}

	req := dto.ToRequest()

	var result Result
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		return recoverFault(func() error {
			res, err := s.process(txCtx, req, dto.Customer.PersonType)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		log.Error("sale processing failed, transaction rolled back", "error", err)
		result = failed(nil, internal.NewInternalError(MessageProcessingFailed+err.Error(), err))
		result.Err.Code = internal.ErrCodeSaleProcessingFailed
	}

	s.publish(ctx, req, result)
	return result
}

func (s *Service) process(ctx context.Context, req Request, personType string) (Result, error) {
	customer, isNew, err := s.findOrCreateCustomer(ctx, req, personType)
	if err != nil {
		return Result{}, err
	}
	req.CustomerID = customer.ID
	if customer.GatewayCustomerID != nil {
		req.GatewayCustomerID = *customer.GatewayCustomerID
	}

	res, err := s.orchestrator.Process(ctx, req)
	if err != nil {
		return Result{}, err
	}
	res.NewCustomer = isNew

	if res.GatewayCustomerID != "" && customer.GatewayCustomerID == nil {
		if err := s.customers.SetGatewayCustomerID(ctx, customer.ID, res.GatewayCustomerID); err != nil {
			return Result{}, fmt.Errorf("failed to store gateway customer id: %w", err)
		}
	}

	return res, nil
}

func (s *Service) findOrCreateCustomer(ctx context.Context, req Request, personType string) (*customerDatamodel.Customer, bool, error) {
	existing, err := s.customers.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up customer: %w", err)
	}

	customer := &customerDatamodel.Customer{
		ID:         uuid.New(),
		Name:       req.CustomerName,
		Email:      req.Email,
		Document:   req.Document,
		Phone:      req.Phone,
		PersonType: personType,
		SellerID:   req.SellerID,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, false, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created", "customer_id", customer.ID)
	return customer, true, nil
}

func (s *Service) publish(ctx context.Context, req Request, result Result) {
	if s.events == nil {
		return
	}

	var event events.Event
	if result.Success {
		order := result.Order
		data := events.SaleCompletedData{
			OrderID:         order.ID.String(),
			CustomerID:      order.CustomerID.String(),
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.Email,
			NewCustomer:     result.NewCustomer,
			PlanDescription: order.PlanDescription,
			Quantity:        order.Quantity,
			Total:           order.Total.StringFixed(2),
			Status:          order.SubscriptionStatus.String(),
		}
		if order.SellerID != nil {
			data.SellerID = order.SellerID.String()
		}
		if order.ExternalSubscriptionID != nil {
			data.ExternalSubscriptionID = *order.ExternalSubscriptionID
		}
		if len(order.Transactions) > 0 && order.Transactions[0].PaymentStatus != nil {
			status := order.Transactions[0].PaymentStatus.String()
			data.PaymentStatus = &status
		}
		event = events.NewSaleCompletedEvent(data)
	} else {
		orderID := ""
		if result.Order != nil {
			orderID = result.Order.ID.String()
		}
		code := ""
		if result.Err != nil {
			code = string(result.Err.Code)
		}
		event = events.NewSaleFailedEvent(orderID, req.Email, code, result.Message)
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish sale event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, internal.ErrSaleNotFound
	}
	if err != nil {
		s.logger.Error("failed to get sale", "error", err, "order_id", id)
		return nil, err
	}
	return order, nil
}

type ListFilter struct {
	SellerID      *uuid.UUID
	CustomerEmail string
	Limit         int
	Offset        int
}

func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]OrderSummary, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		summaries []OrderSummary
		err       error
	)
	switch {
	case filter.SellerID != nil:
		summaries, err = s.query.ListBySeller(ctx, *filter.SellerID, limit, offset)
	case filter.CustomerEmail != "":
		summaries, err = s.query.ListByCustomerEmail(ctx, normalizeEmail(filter.CustomerEmail), limit, offset)
	default:
		return nil, internal.NewValidationError("seller_id or customer_email is required", internal.ErrCodeValidationFailed)
	}
	if err != nil {
		s.logger.Error("failed to list sales", "error", err)
		return nil, err
	}

	for i := range summaries {
		summaries[i].Status = summaries[i].SubscriptionStatus.String()
	}
	return summaries, nil
}

// GetSubscription fetches the live gateway view of the subscription behind a sale.
func (s *Service) GetSubscription(ctx context.Context, id uuid.UUID) (*gatewaytypes.Subscription, error) {
	order, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.ExternalSubscriptionID == nil {
		return nil, internal.NewNotFoundError("Venda sem assinatura no gateway", internal.ErrCodeSaleNotFound)
	}

	subscription, err := s.gateway.GetSubscription(ctx, *order.ExternalSubscriptionID)
	if err != nil {
		s.logger.Error("failed to fetch gateway subscription", "error", err, "order_id", id)
		return nil, internal.NewExternalError(MessageSubscriptionFailed, internal.ErrCodeGatewaySubscriptionFailed, err)
	}
	return subscription, nil
}

// recoverFault turns a panic inside fn into an error so the enclosing
// transaction rolls back through its normal error path.
func recoverFault(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return fn()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
