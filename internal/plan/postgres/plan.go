package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/subscription-sales/internal/core/database"
	planDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/plan"
)

// PlanRepository returns nil, nil for lookups that match nothing.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetAll(ctx context.Context) ([]*planDatamodel.Plan, error) {
	var plans []*planDatamodel.Plan
	err := database.FromContext(ctx, r.db).Order("description ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*planDatamodel.Plan, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*planDatamodel.Plan, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *PlanRepository) first(ctx context.Context, query string, arg interface{}) (*planDatamodel.Plan, error) {
	var p planDatamodel.Plan
	err := database.FromContext(ctx, r.db).Where(query, arg).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepository) Create(ctx context.Context, p *planDatamodel.Plan) error {
	return database.FromContext(ctx, r.db).Create(p).Error
}

func (r *PlanRepository) Update(ctx context.Context, p *planDatamodel.Plan) error {
	p.UpdatedAt = time.Now()
	return database.FromContext(ctx, r.db).Save(p).Error
}
