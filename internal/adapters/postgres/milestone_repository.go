package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

type milestoneRepository struct {
	db *gorm.DB
}

func (r *milestoneRepository) Create(ctx context.Context, row domain.SmartMilestone) error {
	rec := toMilestoneModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *milestoneRepository) GetByID(ctx context.Context, milestoneID uuid.UUID) (domain.SmartMilestone, error) {
	var rec milestoneModel
	if err := r.db.WithContext(ctx).Where("milestone_id = ?", milestoneID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SmartMilestone{}, domain.ErrNotFound
		}
		return domain.SmartMilestone{}, err
	}
	return toDomainMilestone(rec), nil
}

func (r *milestoneRepository) Update(ctx context.Context, row domain.SmartMilestone) error {
	rec := toMilestoneModel(row)
	res := r.db.WithContext(ctx).
		Model(&milestoneModel{}).
		Where("milestone_id = ?", row.MilestoneID).
		Updates(map[string]any{
			"status":        rec.Status,
			"quality_score": rec.QualityScore,
			"approved_at":   rec.ApprovedAt,
			"completed_at":  rec.CompletedAt,
			"released_at":   rec.ReleasedAt,
			"updated_at":    rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *milestoneRepository) ListByEscrow(ctx context.Context, escrowID uuid.UUID) ([]domain.SmartMilestone, error) {
	var rows []milestoneModel
	if err := r.db.WithContext(ctx).
		Where("escrow_id = ?", escrowID).
		Order("order_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.SmartMilestone, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainMilestone(row))
	}
	return result, nil
}
