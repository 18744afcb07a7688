package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

type automationEventRepository struct {
	db *gorm.DB
}

func (r *automationEventRepository) Append(ctx context.Context, row domain.AutomationEvent) error {
	rec := toAutomationEventModel(row)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *automationEventRepository) ListByEscrow(ctx context.Context, escrowID uuid.UUID, skip, limit int) ([]domain.AutomationEvent, error) {
	var rows []automationEventModel
	if err := r.db.WithContext(ctx).
		Where("escrow_id = ?", escrowID).
		Order("created_at DESC").
		Limit(limit).
		Offset(skip).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.AutomationEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainAutomationEvent(row))
	}
	return result, nil
}
