package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/subscription-sales/internal"
)

// PlanSnapshot holds the plan attributes copied into an order at sale time.
type PlanSnapshot struct {
	PlanID      uuid.UUID
	Code        string
	Description string
	Price       decimal.Decimal
}

// IntakeValidator checks the plan and seller referenced by a purchase. It only reads.
type IntakeValidator struct {
	plans   PlanRepository
	sellers SellerRepository
}

func NewIntakeValidator(plans PlanRepository, sellers SellerRepository) *IntakeValidator {
	return &IntakeValidator{
		plans:   plans,
		sellers: sellers,
	}
}

// Validate returns the plan snapshot, or an *internal.AppError tagged with
// PLAN_NOT_FOUND, PLAN_INACTIVE or SELLER_NOT_FOUND. Any other error is a
// repository fault.
func (v *IntakeValidator) Validate(ctx context.Context, planID uuid.UUID, sellerID *uuid.UUID) (*PlanSnapshot, error) {
	plan, err := v.plans.GetByID(ctx, planID)
	if errors.Is(err, ErrRecordNotFound) || (err == nil && plan == nil) {
		return nil, internal.NewNotFoundError(MessagePlanNotFound, internal.ErrCodePlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", planID, err)
	}
	if !plan.Active {
		return nil, internal.NewUnprocessableError(MessagePlanInactive, internal.ErrCodePlanInactive)
	}

	if sellerID != nil && *sellerID != uuid.Nil {
		exists, err := v.sellers.Exists(ctx, *sellerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load seller %s: %w", *sellerID, err)
		}
		if !exists {
			return nil, internal.NewNotFoundError(MessageSellerNotFound, internal.ErrCodeSellerNotFound)
		}
	}

	return &PlanSnapshot{
		PlanID:      plan.ID,
		Code:        plan.Code,
		Description: plan.Description,
		Price:       plan.Price,
	}, nil
}
