package plan

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/subscription-sales/internal"
	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*planDatamodel.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*planDatamodel.Plan, error)
	GetByCode(ctx context.Context, code string) (*planDatamodel.Plan, error)
	Create(ctx context.Context, plan *planDatamodel.Plan) error
	Update(ctx context.Context, plan *planDatamodel.Plan) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListPlans returns the plans currently on sale.
func (s *Service) ListPlans(ctx context.Context) ([]PlanResponse, error) {
	plans, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get plans from repository", "error", err)
		return nil, err
	}

	responses := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		if p.Active {
			responses = append(responses, ToResponse(p))
		}
	}

	s.logger.Debug("retrieved plans", "count", len(responses))
	return responses, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get plan", "error", err, "plan_id", id)
		return nil, err
	}
	if p == nil {
		return nil, internal.NewNotFoundError("Plano não encontrado", internal.ErrCodePlanNotFound)
	}

	response := ToResponse(p)
	return &response, nil
}

// Upsert creates the plan or refreshes the description, price and flag of the
// plan with the same code.
func (s *Service) Upsert(ctx context.Context, p *planDatamodel.Plan) error {
	existing, err := s.repo.GetByCode(ctx, p.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.repo.Create(ctx, p)
	}

	existing.Description = p.Description
	existing.Price = p.Price
	existing.Active = p.Active
	return s.repo.Update(ctx, existing)
}
