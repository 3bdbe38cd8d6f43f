package sale_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/subscription-sales/internal"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	"github.com/frahmantamala/subscription-sales/internal/transport"
)

type MockService struct {
	result       sale.Result
	lastDTO      sale.CreateSaleDTO
	order        *saleDatamodel.Order
	subscription *gatewaytypes.Subscription
	lastFilter   sale.ListFilter
	summaries    []sale.OrderSummary
	err          error
}

func (m *MockService) ProcessSale(ctx context.Context, dto sale.CreateSaleDTO) sale.Result {
	m.lastDTO = dto
	return m.result
}

func (m *MockService) GetSale(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error) {
	return m.order, m.err
}

func (m *MockService) ListSales(ctx context.Context, filter sale.ListFilter) ([]sale.OrderSummary, error) {
	m.lastFilter = filter
	return m.summaries, m.err
}

func (m *MockService) GetSubscription(ctx context.Context, id uuid.UUID) (*gatewaytypes.Subscription, error) {
	return m.subscription, m.err
}

var _ = Describe("Handler", func() {
	var (
		service *MockService
		router  *chi.Mux
	)

	BeforeEach(func() {
		service = &MockService{}
		handler := sale.NewHandler(transport.NewBaseHandler(discardLogger()), service)

		router = chi.NewRouter()
		router.Post("/sales", handler.CreateSale)
		router.Get("/sales", handler.ListSales)
		router.Get("/sales/{id}", handler.GetSale)
		router.Get("/sales/{id}/subscription", handler.GetSubscription)
	})

	serve := func(method, target string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("POST /sales", func() {
		It("should answer 201 with the order on success", func() {
			order := &saleDatamodel.Order{ID: uuid.New()}
			service.result = sale.Result{Success: true, Message: sale.MessageSaleCreated, Order: order}

			body, _ := json.Marshal(map[string]any{
				"customer": map[string]any{"name": "Ana", "email": "ana@example.com"},
				"quantity": 2,
				"card":     map[string]any{"expiry": "12/25"},
			})
			w := serve(http.MethodPost, "/sales", body)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp sale.SaleResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Message).To(Equal(sale.MessageSaleCreated))
			Expect(resp.Order.ID).To(Equal(order.ID))
			Expect(service.lastDTO.Card.Expiry).To(Equal("12/25"))
			Expect(service.lastDTO.Quantity).To(Equal(2))
		})

		It("should use the failure status and carry the error code", func() {
			appErr := internal.NewNotFoundError(sale.MessagePlanNotFound, internal.ErrCodePlanNotFound)
			service.result = sale.Result{Message: appErr.Message, Err: appErr}

			w := serve(http.MethodPost, "/sales", []byte(`{}`))

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring(`"code":"PLAN_NOT_FOUND"`))
			Expect(w.Body.String()).To(ContainSubstring(`"success":false`))
		})

		It("should reject a body that is not JSON", func() {
			w := serve(http.MethodPost, "/sales", []byte(`not json`))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /sales/{id}", func() {
		It("should reject ids that are not uuids", func() {
			w := serve(http.MethodGet, "/sales/42", nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should map service errors to their status", func() {
			service.err = internal.ErrSaleNotFound

			w := serve(http.MethodGet, "/sales/"+uuid.NewString(), nil)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring("SALE_NOT_FOUND"))
		})

		It("should render the order", func() {
			raw := "active"
			service.order = &saleDatamodel.Order{ID: uuid.New(), RawStatus: &raw}

			w := serve(http.MethodGet, "/sales/"+service.order.ID.String(), nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp sale.OrderResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(*resp.RawStatus).To(Equal("active"))
			Expect(resp.Transactions).To(BeEmpty())
		})
	})

	Describe("GET /sales", func() {
		It("should pass filters and pagination to the service", func() {
			sellerID := uuid.New()

			w := serve(http.MethodGet, "/sales?seller_id="+sellerID.String()+"&limit=5&offset=10", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(*service.lastFilter.SellerID).To(Equal(sellerID))
			Expect(service.lastFilter.Limit).To(Equal(5))
			Expect(service.lastFilter.Offset).To(Equal(10))
			Expect(w.Body.String()).To(ContainSubstring(`"sales":[]`))
		})

		It("should reject a malformed seller id", func() {
			w := serve(http.MethodGet, "/sales?seller_id=abc", nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /sales/{id}/subscription", func() {
		It("should return the gateway subscription", func() {
			service.subscription = &gatewaytypes.Subscription{GalaxPayID: 900, Status: "active"}

			w := serve(http.MethodGet, "/sales/"+uuid.NewString()+"/subscription", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"galaxPayId":900`))
		})

		It("should report gateway failures as bad gateway", func() {
			service.err = internal.NewExternalError(sale.MessageSubscriptionFailed, internal.ErrCodeGatewaySubscriptionFailed, nil)

			w := serve(http.MethodGet, "/sales/"+uuid.NewString()+"/subscription", nil)

			Expect(w.Code).To(Equal(http.StatusBadGateway))
		})
	})
})
