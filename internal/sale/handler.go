package sale

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	saleDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/sale"
	"github.com/frahmantamala/subscription-sales/internal/transport"
)

type ServiceAPI interface {
	ProcessSale(ctx context.Context, dto CreateSaleDTO) Result
	GetSale(ctx context.Context, id uuid.UUID) (*saleDatamodel.Order, error)
	ListSales(ctx context.Context, filter ListFilter) ([]OrderSummary, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*gatewaytypes.Subscription, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var dto CreateSaleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("CreateSale: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.Service.ProcessSale(r.Context(), dto)

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
		if result.Err != nil && result.Err.StatusCode != 0 {
			status = result.Err.StatusCode
		}
	}

	h.Logger.Info("CreateSale: sale finished", "success", result.Success, "status", status)
	h.WriteJSON(w, status, ToSaleResponse(result))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}

	order, err := h.Service.GetSale(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToOrderResponse(order))
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ListFilter{CustomerEmail: query.Get("customer_email")}

	if raw := query.Get("seller_id"); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid seller_id")
			return
		}
		filter.SellerID = &sellerID
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = l
	}
	if o, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = o
	}

	sales, err := h.Service.ListSales(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if sales == nil {
		sales = []OrderSummary{}
	}

	h.WriteJSON(w, http.StatusOK, SalesListResponse{Sales: sales})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}

	subscription, err := h.Service.GetSubscription(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, subscription)
}

func (h *Handler) saleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Logger.Warn("invalid sale id", "id", raw)
		h.WriteError(w, http.StatusBadRequest, "invalid sale id")
		return uuid.Nil, false
	}
	return id, true
}
