package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/subscription-sales/internal/core/database"
	confirmationDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/confirmation"
)

type ConfirmationRepository struct {
	db *gorm.DB
}

func NewConfirmationRepository(db *gorm.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

func (r *ConfirmationRepository) Create(ctx context.Context, c *confirmationDatamodel.PurchaseConfirmation) error {
	return database.FromContext(ctx, r.db).Create(c).Error
}

// ListPending returns the oldest pending confirmations first.
func (r *ConfirmationRepository) ListPending(ctx context.Context, limit int) ([]*confirmationDatamodel.PurchaseConfirmation, error) {
	var pending []*confirmationDatamodel.PurchaseConfirmation
	err := database.FromContext(ctx, r.db).
		Where("status = ?", confirmationDatamodel.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

func (r *ConfirmationRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return database.FromContext(ctx, r.db).
		Model(&confirmationDatamodel.PurchaseConfirmation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     confirmationDatamodel.StatusSent,
			"attempts":   gorm.Expr("attempts + 1"),
			"sent_at":    sentAt,
			"last_error": nil,
			"updated_at": time.Now(),
		}).Error
}

// MarkFailed counts the attempt and parks the row once maxAttempts is reached.
func (r *ConfirmationRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	return database.FromContext(ctx, r.db).
		Model(&confirmationDatamodel.PurchaseConfirmation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"status": gorm.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END",
				maxAttempts, confirmationDatamodel.StatusFailed, confirmationDatamodel.StatusPending),
			"updated_at": time.Now(),
		}).Error
}
