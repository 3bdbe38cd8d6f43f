package sale_test

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/subscription-sales/internal"
	customerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/customer"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	"github.com/frahmantamala/subscription-sales/internal/taxonomy"
)

var _ = Describe("Service", func() {
	var (
		ctx        context.Context
		plan       *planDatamodel.Plan
		customers  *MockCustomerRepository
		orders     *MockOrderRepository
		gw         *MockGateway
		transactor *MockTransactor
		publisher  *MockPublisher
		query      *MockQuery
		service    *sale.Service
		dto        sale.CreateSaleDTO
	)

	BeforeEach(func() {
		ctx = context.Background()
		plan = newPlan("49.90", true)
		customers = NewMockCustomerRepository()
		orders = &MockOrderRepository{}
		transactor = &MockTransactor{}
		publisher = &MockPublisher{}
		query = &MockQuery{}
		gw = &MockGateway{
			createdID: 77,
			subscription: &gatewaytypes.Subscription{
				GalaxPayID:   900,
				Status:       "active",
				Transactions: []gatewaytypes.Transaction{{Value: 9980, Status: "captured"}},
			},
		}

		logger := discardLogger()
		orchestrator := sale.NewOrchestrator(
			sale.NewIntakeValidator(NewMockPlanRepository(plan), &MockSellerRepository{}),
			sale.NewCustomerResolver(gw, nil, logger),
			sale.NewPersistenceCoordinator(orders, &MockTransactionRepository{}),
			gw,
			logger,
		)
		service = sale.NewService(sale.ServiceDeps{
			Transactor:   transactor,
			Customers:    customers,
			Orders:       orders,
			Query:        query,
			Gateway:      gw,
			Orchestrator: orchestrator,
			Events:       publisher,
		}, logger)

		dto = sale.CreateSaleDTO{
			Customer: sale.CustomerDTO{
				Name:       "Ana Souza",
				Email:      " Ana@Example.com ",
				Document:   "12345678901",
				PersonType: "F",
			},
			PlanID:   plan.ID,
			Quantity: 2,
			Card: sale.CardDTO{
				Number:     "4111111111111111",
				Expiry:     "12/25",
				CVV:        "123",
				HolderName: "ANA SOUZA",
			},
		}
	})

	Describe("ProcessSale", func() {
		It("should create the local customer and remember its gateway id", func() {
			result := service.ProcessSale(ctx, dto)

			Expect(result.Success).To(BeTrue())
			Expect(result.NewCustomer).To(BeTrue())
			Expect(customers.createCall).To(Equal(1))

			stored := customers.byEmail["ana@example.com"]
			Expect(stored).NotTo(BeNil())
			Expect(stored.PersonType).To(Equal("F"))
			Expect(customers.setCalls[stored.ID]).To(Equal("77"))
			Expect(transactor.committed).To(Equal(1))
		})

		It("should reuse a known customer and skip the gateway resolver", func() {
			known := "55"
			existing := &customerDatamodel.Customer{ID: uuid.New(), Email: "ana@example.com", GatewayCustomerID: &known}
			customers.byEmail[existing.Email] = existing

			result := service.ProcessSale(ctx, dto)

			Expect(result.Success).To(BeTrue())
			Expect(result.NewCustomer).To(BeFalse())
			Expect(result.Order.CustomerID).To(Equal(existing.ID))
			Expect(gw.findCalls).To(BeZero())
			Expect(customers.setCalls).To(BeEmpty())
		})

		It("should commit business failures so the pending order is kept", func() {
			gw.subscription.Status = "canceled"

			result := service.ProcessSale(ctx, dto)

			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodePaymentRejected))
			Expect(transactor.committed).To(Equal(1))
			Expect(transactor.rolledBack).To(BeZero())
			Expect(orders.created).To(HaveLen(1))
		})

		It("should roll back and report SALE_PROCESSING_FAILED on a repository fault", func() {
			orders.shouldFail = true
			orders.failError = errors.New("deadlock detected")

			result := service.ProcessSale(ctx, dto)

			Expect(result.Success).To(BeFalse())
			Expect(result.Order).To(BeNil())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeSaleProcessingFailed))
			Expect(strings.HasPrefix(result.Message, sale.MessageProcessingFailed)).To(BeTrue())
			Expect(result.Message).To(ContainSubstring("deadlock detected"))
			Expect(transactor.rolledBack).To(Equal(1))
		})

		It("should turn a panic into a rolled back failure", func() {
			orders.shouldPanic = true

			var result sale.Result
			Expect(func() { result = service.ProcessSale(ctx, dto) }).NotTo(Panic())

			Expect(result.Err.Code).To(Equal(internal.ErrCodeSaleProcessingFailed))
			Expect(result.Message).To(ContainSubstring("orders table is gone"))
			Expect(transactor.rolledBack).To(Equal(1))
		})

		It("should reject malformed requests before opening a transaction", func() {
			dto.Quantity = 0
			dto.Customer.Email = "nope"

			result := service.ProcessSale(ctx, dto)

			Expect(result.Success).To(BeFalse())
			Expect(result.Err.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(transactor.committed + transactor.rolledBack).To(BeZero())
			Expect(publisher.published).To(BeEmpty())
		})

		It("should publish a completed event on success", func() {
			result := service.ProcessSale(ctx, dto)

			Expect(publisher.published).To(HaveLen(1))
			completed, ok := publisher.published[0].(*events.SaleCompletedEvent)
			Expect(ok).To(BeTrue())
			Expect(completed.OrderID).To(Equal(result.Order.ID.String()))
			Expect(completed.CustomerEmail).To(Equal("ana@example.com"))
			Expect(completed.Total).To(Equal("99.80"))
			Expect(completed.Status).To(Equal(taxonomy.SubscriptionActive.String()))
			Expect(completed.NewCustomer).To(BeTrue())
			Expect(*completed.PaymentStatus).To(Equal("Captured"))
		})

		It("should publish a failed event with the error code", func() {
			gw.findErr = errors.New("timeout")

			service.ProcessSale(ctx, dto)

			Expect(publisher.published).To(HaveLen(1))
			failedEvent, ok := publisher.published[0].(*events.SaleFailedEvent)
			Expect(ok).To(BeTrue())
			Expect(failedEvent.ErrorCode).To(Equal(string(internal.ErrCodeGatewayLookupFailed)))
			Expect(failedEvent.OrderID).NotTo(BeEmpty())
		})
	})

	Describe("GetSale", func() {
		It("should return SALE_NOT_FOUND for unknown ids", func() {
			_, err := service.GetSale(ctx, uuid.New())

			Expect(internal.HasCode(err, internal.ErrCodeSaleNotFound)).To(BeTrue())
		})

		It("should return the finalized order", func() {
			result := service.ProcessSale(ctx, dto)

			order, err := service.GetSale(ctx, result.Order.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(order.SubscriptionStatus).To(Equal(taxonomy.SubscriptionActive))
		})
	})

	Describe("ListSales", func() {
		It("should require a filter", func() {
			_, err := service.ListSales(ctx, sale.ListFilter{})

			Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
		})

		It("should normalize the email and clamp the page size", func() {
			query.byEmail = []sale.OrderSummary{{SubscriptionStatus: taxonomy.SubscriptionCanceled}}

			sales, err := service.ListSales(ctx, sale.ListFilter{CustomerEmail: "ANA@example.com", Limit: 1000})

			Expect(err).NotTo(HaveOccurred())
			Expect(query.lastEmail).To(Equal("ana@example.com"))
			Expect(query.lastLimit).To(Equal(100))
			Expect(sales[0].Status).To(Equal("Canceled"))
		})

		It("should list by seller", func() {
			sellerID := uuid.New()
			query.bySeller = []sale.OrderSummary{{}, {}}

			sales, err := service.ListSales(ctx, sale.ListFilter{SellerID: &sellerID})

			Expect(err).NotTo(HaveOccurred())
			Expect(sales).To(HaveLen(2))
			Expect(query.lastLimit).To(Equal(20))
		})
	})

	Describe("GetSubscription", func() {
		It("should fetch the live subscription for a finalized sale", func() {
			result := service.ProcessSale(ctx, dto)

			subscription, err := service.GetSubscription(ctx, result.Order.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(subscription.ID()).To(Equal("900"))
			Expect(gw.getCalls).To(Equal(1))
		})

		It("should report a sale without external subscription as not found", func() {
			gw.subscriptionErr = errors.New("down")
			result := service.ProcessSale(ctx, dto)

			_, err := service.GetSubscription(ctx, result.Order.ID)

			Expect(internal.HasCode(err, internal.ErrCodeSaleNotFound)).To(BeTrue())
			Expect(gw.getCalls).To(BeZero())
		})
	})
})
