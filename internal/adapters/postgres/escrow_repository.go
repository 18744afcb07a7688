package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

type escrowRepository struct {
	db *gorm.DB
}

// CreateWithMilestones inserts the escrow, its full milestone plan and the
// creation outbox row in one transaction. A failure anywhere rolls the whole
// plan back so partial escrows never become readable.
func (r *escrowRepository) CreateWithMilestones(ctx context.Context, escrow domain.SmartEscrow, plan []domain.SmartMilestone, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toEscrowModel(escrow)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		if len(plan) > 0 {
			rows := make([]milestoneModel, 0, len(plan))
			for _, m := range plan {
				rows = append(rows, toMilestoneModel(m))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		outbox := outboxModel{
			OutboxID:     outboxEvent.EventID,
			EventType:    outboxEvent.EventType,
			PartitionKey: outboxEvent.PartitionKey,
			Payload:      string(outboxEvent.Payload),
			CreatedAt:    outboxEvent.OccurredAt,
		}
		return tx.Create(&outbox).Error
	})
}

func (r *escrowRepository) GetByID(ctx context.Context, escrowID uuid.UUID) (domain.SmartEscrow, error) {
	var rec escrowModel
	if err := r.db.WithContext(ctx).Where("escrow_id = ?", escrowID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SmartEscrow{}, domain.ErrNotFound
		}
		return domain.SmartEscrow{}, err
	}
	return toDomainEscrow(rec), nil
}

func (r *escrowRepository) Update(ctx context.Context, escrow domain.SmartEscrow) error {
	rec := toEscrowModel(escrow)
	res := r.db.WithContext(ctx).
		Model(&escrowModel{}).
		Where("escrow_id = ?", escrow.EscrowID).
		Updates(map[string]any{
			"released_amount":    rec.ReleasedAmount,
			"disputed_amount":    rec.DisputedAmount,
			"status":             rec.Status,
			"automation_enabled": rec.AutomationEnabled,
			"dispute_reason":     rec.DisputeReason,
			"activated_at":       rec.ActivatedAt,
			"completed_at":       rec.CompletedAt,
			"updated_at":         rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *escrowRepository) List(ctx context.Context, filter ports.EscrowFilter) ([]domain.SmartEscrow, error) {
	query := r.db.WithContext(ctx).Model(&escrowModel{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.FreelancerID != nil {
		query = query.Where("freelancer_id = ?", *filter.FreelancerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var rows []escrowModel
	if err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Skip).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.SmartEscrow, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainEscrow(row))
	}
	return result, nil
}

func (r *escrowRepository) ListAutomated(ctx context.Context, limit int) ([]domain.SmartEscrow, error) {
	var rows []escrowModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.EscrowStatusActive).
		Where("is_automated = TRUE").
		Where("automation_enabled = TRUE").
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.SmartEscrow, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainEscrow(row))
	}
	return result, nil
}
