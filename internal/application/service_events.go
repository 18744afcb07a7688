package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

// appendAutomationEvent writes one entry to the escrow's append-only log.
// Log failures are reported but never fail the business operation.
func (s *Service) appendAutomationEvent(ctx context.Context, escrowID uuid.UUID, milestoneID *uuid.UUID, eventType, eventName, description string, success bool, at time.Time) {
	if s.automation == nil {
		return
	}
	err := s.automation.Append(ctx, domain.AutomationEvent{
		EventID:     uuid.New(),
		EscrowID:    escrowID,
		MilestoneID: milestoneID,
		EventType:   eventType,
		EventName:   eventName,
		Description: description,
		Success:     success,
		CreatedAt:   at,
	})
	if err != nil {
		slog.Default().WarnContext(ctx, "automation event append failed",
			"service", s.cfg.ServiceName,
			"module", "application",
			"layer", "application",
			"operation", "append_automation_event",
			"outcome", "failure",
			"escrow_id", escrowID.String(),
			"event_name", eventName,
			"error", err.Error(),
		)
	}
}

func (s *Service) enqueueEscrowEvent(ctx context.Context, eventType string, escrow domain.SmartEscrow, extra map[string]any) {
	data := map[string]any{
		"escrow_id":       escrow.EscrowID.String(),
		"project_id":      escrow.ProjectID.String(),
		"status":          escrow.Status,
		"total_amount":    escrow.TotalAmount,
		"released_amount": escrow.ReleasedAmount,
	}
	for k, v := range extra {
		data[k] = v
	}
	s.enqueueOutbox(ctx, eventType, escrow.EscrowID.String(), data)
}

func (s *Service) enqueueMilestoneReleased(ctx context.Context, escrow domain.SmartEscrow, milestone domain.SmartMilestone, notes string, forced bool) {
	s.enqueueOutbox(ctx, domain.EventMilestoneReleased, escrow.EscrowID.String(), contracts.MilestoneReleasedData{
		EscrowID:       escrow.EscrowID.String(),
		MilestoneID:    milestone.MilestoneID.String(),
		Amount:         milestone.Amount,
		ReleasedAmount: escrow.ReleasedAmount,
		ReleaseNotes:   notes,
		Forced:         forced,
	})
}

func (s *Service) enqueueDisputeEvent(ctx context.Context, eventType string, escrow domain.SmartEscrow, actor Actor, outcome string) {
	s.enqueueOutbox(ctx, eventType, escrow.EscrowID.String(), contracts.DisputeData{
		EscrowID:       escrow.EscrowID.String(),
		RaisedBy:       actor.UserID.String(),
		Reason:         escrow.DisputeReason,
		Outcome:        outcome,
		DisputedAmount: escrow.DisputedAmount,
	})
}

func (s *Service) enqueueOutbox(ctx context.Context, eventType, partitionKey string, data any) {
	if s.outbox == nil {
		return
	}
	now := s.nowFn()
	payload, _ := json.Marshal(contracts.EventEnvelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		OccurredAt:   now,
		PartitionKey: partitionKey,
		Data:         data,
	})
	err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		slog.Default().WarnContext(ctx, "outbox enqueue failed",
			"service", s.cfg.ServiceName,
			"module", "application",
			"layer", "application",
			"operation", "enqueue_outbox",
			"outcome", "failure",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

// FlushOutbox publishes pending outbox records directly through the
// configured publisher. The worker loop uses this in tests and small
// deployments without a broker claim protocol.
func (s *Service) FlushOutbox(ctx context.Context) error {
	if s.outbox == nil || s.publisher == nil {
		return nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	now := s.nowFn()
	for _, rec := range pending {
		if err := s.publisher.Publish(ctx, rec.EventType, rec.PartitionKey, rec.Payload); err != nil {
			_ = s.outbox.MarkFailed(ctx, rec.OutboxID, err.Error(), now)
			continue
		}
		_ = s.outbox.MarkPublished(ctx, rec.OutboxID, now)
	}
	return nil
}
