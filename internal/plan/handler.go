package plan

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/subscription-sales/internal/transport"
)

type ServiceAPI interface {
	ListPlans(ctx context.Context) ([]PlanResponse, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*PlanResponse, error)
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

func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Service.ListPlans(r.Context())
	if err != nil {
		h.Logger.Error("GetPlans: failed to get plans", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get plans")
		return
	}

	h.WriteJSON(w, http.StatusOK, PlansResponse{Plans: plans})
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	p, err := h.Service.GetPlan(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
