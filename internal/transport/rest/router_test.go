package rest_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/subscription-sales/api"
	"github.com/frahmantamala/subscription-sales/internal/auth"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	"github.com/frahmantamala/subscription-sales/internal/transport"
	"github.com/frahmantamala/subscription-sales/internal/transport/rest"
)

const testSecret = "router-test-secret-with-at-least-32-chars"

type stubSaleService struct {
	processed int
	lastDTO   sale.CreateSaleDTO
	listed    int
}

func (s *stubSaleService) ProcessSale(ctx context.Context, dto sale.CreateSaleDTO) sale.Result {
	s.processed++
	s.lastDTO = dto
	return sale.Result{Success: true, Message: sale.MessageSaleCreated, Order: &saleDatamodel.Order{ID: uuid.New()}}
}

func (s *stubSaleService) GetSale(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error) {
	return &saleDatamodel.Order{ID: id}, nil
}

func (s *stubSaleService) ListSales(ctx context.Context, filter sale.ListFilter) ([]sale.OrderSummary, error) {
	s.listed++
	return nil, nil
}

func (s *stubSaleService) GetSubscription(ctx context.Context, id uuid.UUID) (*gatewaytypes.Subscription, error) {
	return &gatewaytypes.Subscription{GalaxPayID: 1}, nil
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router   *chi.Mux
		service  *stubSaleService
		verifier *auth.Verifier
	)

	BeforeEach(func() {
		logger := discardLogger()
		base := transport.NewBaseHandler(logger)
		service = &stubSaleService{}
		verifier = auth.NewVerifier(testSecret, "subscription-sales")

		router = chi.NewRouter()
		err := rest.RegisterAllRoutes(router, rest.Handlers{
			Health: rest.NewHealthHandler(map[string]rest.CheckFunc{}),
			Auth:   auth.NewHandler(base, verifier),
			Sale:   sale.NewHandler(base, service),
		}, rest.Options{OpenAPISpec: api.Spec}, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	bearer := func(roles ...string) string {
		token, err := verifier.Issue("user-1", "ops@example.com", roles, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		return "Bearer " + token
	}

	validSale := `{
		"customer": {"name": "Ana", "email": "ana@example.com"},
		"plan_id": "` + uuid.NewString() + `",
		"quantity": 1,
		"card": {"number": "4111111111111111", "expiry": "12/25", "cvv": "123", "holder_name": "ANA"}
	}`

	It("should serve ping under the base path with a request id", func() {
		w := serve(httptest.NewRequest(http.MethodGet, rest.BasePath+"/ping", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Request-Id")).NotTo(BeEmpty())
	})

	It("should let anonymous purchases through with the body intact", func() {
		req := httptest.NewRequest(http.MethodPost, rest.BasePath+"/sales", bytes.NewBufferString(validSale))
		req.Header.Set("Content-Type", "application/json")

		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(service.processed).To(Equal(1))
		Expect(service.lastDTO.Card.Expiry).To(Equal("12/25"))
	})

	It("should reject a purchase the api document does not allow", func() {
		// Given a body without the card object
		req := httptest.NewRequest(http.MethodPost, rest.BasePath+"/sales",
			bytes.NewBufferString(`{"customer": {"name": "Ana", "email": "ana@example.com"}, "plan_id": "x", "quantity": 1}`))
		req.Header.Set("Content-Type", "application/json")

		// When it reaches the router
		w := serve(req)

		// Then the validator answers before the handler runs
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
		Expect(service.processed).To(BeZero())
	})

	It("should require a bearer token to list sales", func() {
		w := serve(httptest.NewRequest(http.MethodGet, rest.BasePath+"/sales?customer_email=ana@example.com", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(service.listed).To(BeZero())
	})

	It("should list sales for back-office users", func() {
		req := httptest.NewRequest(http.MethodGet, rest.BasePath+"/sales?customer_email=ana@example.com", nil)
		req.Header.Set("Authorization", bearer(auth.RoleBackOffice))

		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(service.listed).To(Equal(1))
	})

	It("should refuse tokens without a sales role", func() {
		req := httptest.NewRequest(http.MethodGet, rest.BasePath+"/sales/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", bearer("viewer"))

		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should validate query parameters against the document", func() {
		req := httptest.NewRequest(http.MethodGet, rest.BasePath+"/sales?customer_email=ana@example.com&limit=0", nil)
		req.Header.Set("Authorization", bearer(auth.RoleAdmin))

		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(service.listed).To(BeZero())
	})

	It("should publish the api document and allow any origin by default", func() {
		req := httptest.NewRequest(http.MethodGet, "/openapi.yml", nil)
		req.Header.Set("Origin", "https://shop.example.com")

		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Subscription Sales API"))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})
})
