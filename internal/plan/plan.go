package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
)

type PlanResponse struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
}

type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

func ToResponse(p *planDatamodel.Plan) PlanResponse {
	return PlanResponse{
		ID:          p.ID,
		Code:        p.Code,
		Description: p.Description,
		Price:       p.Price,
		Active:      p.Active,
	}
}

// NewPlan builds an active plan ready to be stored.
func NewPlan(code, description string, price decimal.Decimal) *planDatamodel.Plan {
	now := time.Now()
	return &planDatamodel.Plan{
		ID:          uuid.New(),
		Code:        code,
		Description: description,
		Price:       price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
