package sale_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/subscription-sales/internal"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/gateway"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

var _ = Describe("Orchestrator", func() {
	var (
		ctx          context.Context
		plan         *planDatamodel.Plan
		plans        *MockPlanRepository
		sellers      *MockSellerRepository
		orders       *MockOrderRepository
		transactions *MockTransactionRepository
		gw           *MockGateway
		locker       sale.EmailLocker
		req          sale.Request
	)

	build := func() *sale.Orchestrator {
		logger := discardLogger()
		return sale.NewOrchestrator(
			sale.NewIntakeValidator(plans, sellers),
			sale.NewCustomerResolver(gw, locker, logger),
			sale.NewPersistenceCoordinator(orders, transactions),
			gw,
			logger,
		)
	}

	BeforeEach(func() {
		ctx = context.Background()
		plan = newPlan("49.90", true)
		plans = NewMockPlanRepository(plan)
		sellers = &MockSellerRepository{sellers: map[uuid.UUID]bool{}}
		orders = &MockOrderRepository{}
		transactions = &MockTransactionRepository{}
		locker = nil
		gw = &MockGateway{
			createdID: 77,
			subscription: &gatewaytypes.Subscription{
				GalaxPayID: 900,
				Status:     "active",
				Transactions: []gatewaytypes.Transaction{
					{GalaxPayID: 5001, Value: 9980, Status: "3", PaydayDate: "2025-01-15"},
				},
			},
		}
		req = sale.Request{
			CustomerID:   uuid.New(),
			CustomerName: "Ana Souza",
			Email:        "ana@example.com",
			Document:     "12345678901",
			Phone:        "11999990000",
			PlanID:       plan.ID,
			Quantity:     2,
			Card: sale.Card{
				Number:     "4111111111111111",
				Expiry:     "12/25",
				CVV:        "123",
				HolderName: "ANA SOUZA",
			},
		}
	})

	Describe("the happy path", func() {
		It("should persist an active order with one reconciled transaction", func() {
			// Given a 49.90 plan bought twice and a gateway answering "active"
			orchestrator := build()

			// When
			result, err := orchestrator.Process(ctx, req)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal(sale.MessageSaleCreated))
			Expect(result.Err).To(BeNil())

			order := result.Order
			Expect(order.SubscriptionStatus).To(Equal(taxonomy.SubscriptionActive))
			Expect(order.StatusDescription).To(Equal("Ativa"))
			Expect(*order.RawStatus).To(Equal("active"))
			Expect(*order.ExternalSubscriptionID).To(Equal("900"))
			Expect(order.Total.Equal(decimal.RequireFromString("99.80"))).To(BeTrue())
			Expect(order.GatewayResponse).NotTo(BeEmpty())

			Expect(orders.created).To(HaveLen(1))
			Expect(orders.updates).To(HaveLen(1))
			Expect(orders.updates[0].ID).To(Equal(orders.created[0].ID))

			Expect(transactions.created).To(HaveLen(1))
			tx := transactions.created[0]
			Expect(tx.OrderID).To(Equal(order.ID))
			Expect(tx.Amount.Equal(decimal.RequireFromString("99.80"))).To(BeTrue())
			Expect(tx.RawStatus).To(Equal("3"))
			Expect(tx.PaymentStatus).To(BeNil())
			Expect(tx.StatusDescription).To(BeEmpty())
			Expect(*tx.ExternalTransactionID).To(Equal("5001"))
			Expect(tx.PaymentMethod).To(Equal(saleDatamodel.PaymentMethodSubscription))
			Expect(tx.PaymentDate.Format("2006-01-02")).To(Equal("2025-01-15"))
		})

		It("should snapshot the plan and create the order pending first", func() {
			result, err := build().Process(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			pending := orders.created[0]
			Expect(pending.SubscriptionStatus).To(Equal(taxonomy.SubscriptionWaitingPayment))
			Expect(pending.RawStatus).To(BeNil())
			Expect(pending.StatusDescription).To(Equal(saleDatamodel.InitialStatusDescription))
			Expect(pending.PlanCode).To(Equal("PLAN-GOLD"))
			Expect(pending.PlanDescription).To(Equal("Plano Ouro"))
			Expect(pending.PlanPrice.Equal(plan.Price)).To(BeTrue())
			Expect(pending.ExternalSubscriptionID).To(BeNil())
			Expect(result.Order.ID).To(Equal(pending.ID))
		})

		It("should send the subscription request the gateway expects", func() {
			result, err := build().Process(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			sent := gw.lastSubscription
			Expect(sent.MyID).To(Equal(result.Order.ID.String()))
			Expect(sent.PlanID).To(Equal("PLAN-GOLD"))
			Expect(sent.Periodicity).To(Equal(gatewaytypes.PeriodicityMonthly))
			Expect(sent.MainPaymentMethodID).To(Equal(gatewaytypes.PaymentMethodCreditCard))
			Expect(sent.Quantity).To(Equal(2))
			Expect(sent.Value).To(Equal(int64(9980)))
			Expect(sent.FirstPayDayDate).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}$`))
			Expect(sent.Card).To(Equal(gatewaytypes.Card{
				Number:     "4111111111111111",
				ExpMonth:   "12",
				ExpYear:    "2025",
				Cvv:        "123",
				HolderName: "ANA SOUZA",
			}))
			Expect(sent.Customer.GalaxPayID).To(Equal(int64(77)))
			Expect(sent.Customer.Emails).To(ConsistOf("ana@example.com"))
			Expect(sent.Description).To(Equal("Assinatura Plano Ouro - Ana Souza"))
			Expect(sent.Metadata.CustomerID).To(Equal(req.CustomerID.String()))
			Expect(sent.Metadata.Notes).To(Equal("Pedido: " + result.Order.ID.String()))
			Expect(sent.Metadata.SellerID).To(BeEmpty())
		})

		It("should carry the seller reference when one is given", func() {
			sellerID := uuid.New()
			sellers.sellers[sellerID] = true
			req.SellerID = &sellerID

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(*result.Order.SellerID).To(Equal(sellerID))
			Expect(gw.lastSubscription.Metadata.SellerID).To(Equal(sellerID.String()))
		})
	})

	Describe("intake validation", func() {
		It("should fail with PLAN_INACTIVE and touch nothing else", func() {
			plan.Active = false

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodePlanInactive))
			Expect(result.Message).To(Equal(sale.MessagePlanInactive))
			Expect(result.Order).To(BeNil())
			Expect(gw.totalCalls()).To(BeZero())
			Expect(orders.created).To(BeEmpty())
		})

		It("should fail with PLAN_NOT_FOUND for an unknown plan", func() {
			req.PlanID = uuid.New()

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodePlanNotFound))
			Expect(result.Message).To(Equal(sale.MessagePlanNotFound))
			Expect(gw.totalCalls()).To(BeZero())
		})

		It("should fail with SELLER_NOT_FOUND for an unknown seller", func() {
			sellerID := uuid.New()
			req.SellerID = &sellerID

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeSellerNotFound))
			Expect(result.Message).To(Equal(sale.MessageSellerNotFound))
			Expect(orders.created).To(BeEmpty())
		})

		It("should ignore a nil seller id", func() {
			nilID := uuid.Nil
			req.SellerID = &nilID

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
		})

		It("should reject an expiry without separator before any gateway call", func() {
			req.Card.Expiry = "1225"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeInvalidExpiryFormat))
			Expect(gw.totalCalls()).To(BeZero())
			Expect(orders.created).To(BeEmpty())
		})

		It("should surface repository faults as errors", func() {
			plans.shouldFail = true
			plans.failError = errors.New("connection reset")

			_, err := build().Process(ctx, req)

			Expect(err).To(MatchError(ContainSubstring("connection reset")))
		})
	})

	Describe("customer resolution", func() {
		It("should reuse the first gateway match without creating", func() {
			gw.customers = []gatewaytypes.Customer{{GalaxPayID: 41}, {GalaxPayID: 42}}

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(gw.findCalls).To(Equal(1))
			Expect(gw.createCalls).To(BeZero())
			Expect(gw.lastSubscription.Customer.GalaxPayID).To(Equal(int64(41)))
			Expect(result.GatewayCustomerID).To(Equal("41"))
		})

		It("should create the customer once when the gateway has none", func() {
			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(gw.findCalls).To(Equal(1))
			Expect(gw.createCalls).To(Equal(1))
			Expect(gw.lastCustomerReq.MyID).To(Equal(req.CustomerID.String()))
			Expect(gw.lastCustomerReq.Emails).To(ConsistOf("ana@example.com"))
			Expect(gw.lastCustomerReq.Phones).To(ConsistOf("11999990000"))
			Expect(result.GatewayCustomerID).To(Equal("77"))
		})

		It("should skip the resolver when the gateway id is already known", func() {
			req.GatewayCustomerID = "55"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(gw.findCalls).To(BeZero())
			Expect(gw.createCalls).To(BeZero())
			Expect(gw.lastSubscription.Customer.GalaxPayID).To(Equal(int64(55)))
		})

		It("should fail with GATEWAY_LOOKUP_FAILED and never create when search fails", func() {
			gw.findErr = errors.New("timeout")

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeGatewayLookupFailed))
			Expect(result.Message).To(Equal(sale.MessageLookupFailed))
			Expect(gw.createCalls).To(BeZero())
			Expect(gw.subscriptionCalls).To(BeZero())
			Expect(orders.created).To(HaveLen(1))
			Expect(orders.updates).To(BeEmpty())
		})

		It("should fail with GATEWAY_CUSTOMER_CREATE_FAILED when creation fails", func() {
			gw.createErr = errors.New("boom")

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeGatewayCustomerCreateFailed))
			Expect(result.Message).To(Equal(sale.MessageCustomerFailed))
			Expect(gw.subscriptionCalls).To(BeZero())
		})

		It("should treat a created customer without id as a creation failure", func() {
			gw.createdID = 0

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeGatewayCustomerCreateFailed))
		})

		It("should hold the per-email lock around resolution when configured", func() {
			mockLocker := &MockLocker{}
			locker = mockLocker
			req.Email = "Ana@Example.com"

			_, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(mockLocker.locked).To(Equal([]string{"ana@example.com"}))
			Expect(mockLocker.unlocked).To(Equal(1))
		})

		It("should fail the lookup when the lock cannot be taken", func() {
			locker = &MockLocker{shouldFail: true, failError: errors.New("lock taken")}

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeGatewayLookupFailed))
			Expect(gw.findCalls).To(BeZero())
		})
	})

	Describe("gateway outcomes", func() {
		It("should keep the order pending when subscription creation fails", func() {
			gw.subscriptionErr = &gateway.APIError{StatusCode: http.StatusBadRequest, Message: "Cartão inválido"}

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeGatewaySubscriptionFailed))
			Expect(result.Message).To(Equal("Cartão inválido"))
			Expect(result.Order.SubscriptionStatus).To(Equal(taxonomy.SubscriptionWaitingPayment))
			Expect(orders.updates).To(BeEmpty())
			Expect(transactions.created).To(BeEmpty())
		})

		It("should fall back to a generic message for transport errors", func() {
			gw.subscriptionErr = errors.New("connection refused")

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal(sale.MessageSubscriptionFailed))
		})

		It("should report a mapped but unsuccessful status as a rejected payment", func() {
			gw.subscription.Status = "canceled"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodePaymentRejected))
			Expect(result.Message).To(Equal(sale.MessagePaymentRejected))
			Expect(orders.updates[0].SubscriptionStatus).To(Equal(taxonomy.SubscriptionCanceled))
			Expect(transactions.created).To(HaveLen(1))
		})

		It("should prefer the gateway error message on rejection", func() {
			gw.subscription.Status = "inactive"
			gw.subscription.ErrorMessage = "Saldo insuficiente"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal("Saldo insuficiente"))
		})

		It("should count waiting payment as success", func() {
			gw.subscription.Status = "WaitingPayment"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
		})

		It("should keep the raw token and previous status on a mapping miss", func() {
			gw.subscription.Status = "underReview"

			result, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			updated := orders.updates[0]
			Expect(updated.SubscriptionStatus).To(Equal(taxonomy.SubscriptionWaitingPayment))
			Expect(updated.StatusDescription).To(BeEmpty())
			Expect(*updated.RawStatus).To(Equal("underReview"))
		})

		It("should map known payment statuses on transactions", func() {
			gw.subscription.Transactions = []gatewaytypes.Transaction{
				{Value: 4990, Status: "captured"},
				{Value: 4990, Status: "Negada na Operadora de Cartão"},
			}

			_, err := build().Process(ctx, req)

			Expect(err).NotTo(HaveOccurred())
			Expect(transactions.created).To(HaveLen(2))
			Expect(*transactions.created[0].PaymentStatus).To(Equal(taxonomy.PaymentCaptured))
			Expect(*transactions.created[1].PaymentStatus).To(Equal(taxonomy.PaymentDenied))
			Expect(transactions.created[0].ExternalTransactionID).To(BeNil())
		})

		It("should return an error when the order cannot be stored", func() {
			orders.shouldFail = true
			orders.failError = errors.New("disk full")

			_, err := build().Process(ctx, req)

			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(gw.totalCalls()).To(BeZero())
		})
	})
})
