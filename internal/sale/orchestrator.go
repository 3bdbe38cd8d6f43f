package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/frahmantamala/subscription-sales/internal"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/gateway"
	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

var gatewayTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Orchestrator drives one sale from validation to reconciled transactions.
// Business failures come back as a Result; a returned error means the unit
// of work must be rolled back.
type Orchestrator struct {
	validator   *IntakeValidator
	resolver    *CustomerResolver
	persistence *PersistenceCoordinator
	gateway     Gateway
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrchestrator(validator *IntakeValidator, resolver *CustomerResolver, persistence *PersistenceCoordinator, gateway Gateway, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		validator:   validator,
		resolver:    resolver,
		persistence: persistence,
		gateway:     gateway,
		logger:      logger,
		now:         time.Now,
	}
}

func (o *Orchestrator) Process(ctx context.Context, req Request) (Result, error) {
	snapshot, err := o.validator.Validate(ctx, req.PlanID, req.SellerID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			o.logger.Warn("sale rejected by intake validation", "code", appErr.Code, "plan_id", req.PlanID)
			return failed(nil, appErr), nil
		}
		return Result{}, err
	}

	expMonth, expYear, appErr := ParseCardExpiry(req.Card.Expiry)
	if appErr != nil {
		return failed(nil, appErr), nil
	}

	order := &saleDatamodel.Order{
		CustomerID:      req.CustomerID,
		SellerID:        req.SellerID,
		PlanID:          snapshot.PlanID,
		Quantity:        req.Quantity,
		PlanPrice:       snapshot.Price,
		PlanDescription: snapshot.Description,
		PlanCode:        snapshot.Code,
		Total:           OrderTotal(snapshot.Price, req.Quantity),
	}
	if err := o.persistence.CreatePendingOrder(ctx, order); err != nil {
		return Result{}, err
	}

	gatewayCustomerID := req.GatewayCustomerID
	if gatewayCustomerID == "" {
		gatewayCustomerID, appErr = o.resolver.Resolve(ctx, CustomerProfile{
			LocalID:  req.CustomerID,
			Name:     req.CustomerName,
			Email:    req.Email,
			Document: req.Document,
			Phone:    req.Phone,
		})
		if appErr != nil {
			return failed(order, appErr), nil
		}
	}

	galaxPayID, err := strconv.ParseInt(gatewayCustomerID, 10, 64)
	if err != nil {
		o.logger.Error("stored gateway customer id is not numeric", "gateway_customer_id", gatewayCustomerID)
		return failed(order, internal.NewExternalError(MessageLookupFailed, internal.ErrCodeGatewayLookupFailed, err)), nil
	}

	subReq := o.subscriptionRequest(req, order, snapshot, galaxPayID, expMonth, expYear)
	subscription, err := o.gateway.CreateSubscription(ctx, subReq)
	if err != nil {
		o.logger.Error("gateway subscription creation failed", "error", err, "order_id", order.ID)
		message := MessageSubscriptionFailed
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}
		res := failed(order, internal.NewExternalError(message, internal.ErrCodeGatewaySubscriptionFailed, err))
		res.GatewayCustomerID = gatewayCustomerID
		return res, nil
	}

	mapped, ok := o.applySubscription(order, subscription)
	if err := o.persistence.FinalizeOrder(ctx, order); err != nil {
		return Result{}, err
	}

	for _, remote := range subscription.Transactions {
		transaction := o.transactionFrom(order, remote)
		if err := o.persistence.AppendTransaction(ctx, transaction); err != nil {
			return Result{}, err
		}
		order.Transactions = append(order.Transactions, *transaction)
	}

	var res Result
	if ok && mapped.IsSuccessful() {
		res = succeeded(order)
	} else {
		message := MessagePaymentRejected
		if subscription.ErrorMessage != "" {
			message = subscription.ErrorMessage
		}
		res = failed(order, internal.NewUnprocessableError(message, internal.ErrCodePaymentRejected))
	}
	res.GatewayCustomerID = gatewayCustomerID

	o.logger.Info("sale processed",
		"order_id", order.ID,
		"success", res.Success,
		"raw_status", subscription.Status,
		"transactions", len(subscription.Transactions))

	return res, nil
}

func (o *Orchestrator) subscriptionRequest(req Request, order *saleDatamodel.Order, snapshot *PlanSnapshot, galaxPayID int64, expMonth, expYear string) gatewaytypes.SubscriptionRequest {
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Assinatura %s - %s", snapshot.Description, req.CustomerName)
	}

	metadata := &gatewaytypes.SubscriptionMetadata{
		CustomerID: req.CustomerID.String(),
		Notes:      "Pedido: " + order.ID.String(),
	}
	if req.SellerID != nil {
		metadata.SellerID = req.SellerID.String()
	}

	return gatewaytypes.SubscriptionRequest{
		MyID:                order.ID.String(),
		PlanID:              snapshot.Code,
		Periodicity:         gatewaytypes.PeriodicityMonthly,
		MainPaymentMethodID: gatewaytypes.PaymentMethodCreditCard,
		Quantity:            req.Quantity,
		Value:               ToMinorUnits(order.Total),
		FirstPayDayDate:     o.now().Format("2006-01-02"),
		Card: gatewaytypes.Card{
			Number:     req.Card.Number,
			ExpMonth:   expMonth,
			ExpYear:    expYear,
			Cvv:        req.Card.CVV,
			HolderName: req.Card.HolderName,
		},
		Customer: gatewaytypes.SubscriptionCustomer{
			GalaxPayID: galaxPayID,
			Name:       req.CustomerName,
			Emails:     []string{req.Email},
		},
		Description: description,
		Metadata:    metadata,
	}
}

// applySubscription copies the gateway outcome onto order. On a mapping miss
// the previous status is kept and the description cleared; the raw token is
// stored either way.
func (o *Orchestrator) applySubscription(order *saleDatamodel.Order, subscription *gatewaytypes.Subscription) (taxonomy.SubscriptionStatus, bool) {
	raw := subscription.Status
	order.RawStatus = &raw

	entry, ok := taxonomy.MapSubscriptionStatus(raw)
	if ok {
		order.SubscriptionStatus = entry.Value
		order.StatusDescription = entry.Description
	} else {
		order.StatusDescription = ""
		o.logger.Warn("unmapped subscription status", "raw_status", raw, "order_id", order.ID)
	}

	if id := subscription.ID(); id != "" && order.ExternalSubscriptionID == nil {
		order.ExternalSubscriptionID = &id
	}

	if payload, err := json.Marshal(subscription); err == nil {
		order.GatewayResponse = datatypes.JSON(payload)
	}

	return entry.Value, ok
}

func (o *Orchestrator) transactionFrom(order *saleDatamodel.Order, remote gatewaytypes.Transaction) *saleDatamodel.Transaction {
	now := o.now()
	paidAt := parseGatewayTime(remote.PaydayDate, parseGatewayTime(remote.Payday, now))

	transaction := &saleDatamodel.Transaction{
		OrderID:       order.ID,
		Amount:        FromMinorUnits(remote.Value),
		PaymentDate:   paidAt,
		RawStatus:     remote.Status,
		PaymentMethod: saleDatamodel.PaymentMethodSubscription,
		CreatedAt:     parseGatewayTime(remote.CreatedAt, now),
	}

	if entry, ok := taxonomy.MapPaymentStatus(remote.Status); ok {
		status := entry.Value
		transaction.PaymentStatus = &status
		transaction.StatusDescription = entry.Description
	} else {
		o.logger.Warn("unmapped payment status", "raw_status", remote.Status, "order_id", order.ID)
	}

	if id := remote.ID(); id != "" {
		transaction.ExternalTransactionID = &id
	}

	return transaction
}

func parseGatewayTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	for _, layout := range gatewayTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}
