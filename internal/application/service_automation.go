package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

// ProcessAutomation runs one rule-evaluation pass over an escrow's milestones.
// Exposed as POST /smart-escrow/{id}/process-automation and reused by the
// background worker for automated escrows.
func (s *Service) ProcessAutomation(ctx context.Context, actor Actor, escrowID uuid.UUID) (ProcessAutomationResult, error) {
	if actor.UserID == uuid.Nil {
		return ProcessAutomationResult{}, domain.ErrUnauthorized
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return ProcessAutomationResult{}, err
	}
	if err := authorizeEscrowAccess(actor, escrow); err != nil {
		return ProcessAutomationResult{}, err
	}
	return s.processAutomationPass(ctx, escrow)
}

func (s *Service) processAutomationPass(ctx context.Context, escrow domain.SmartEscrow) (ProcessAutomationResult, error) {
	result := ProcessAutomationResult{EscrowID: escrow.EscrowID}
	now := s.nowFn()

	if !escrow.AutomationEnabled {
		s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeEvaluation,
			"automation_skipped", "automation disabled for escrow", false, now)
		return result, domain.ErrAutomationOff
	}
	if escrow.Status != domain.EscrowStatusActive {
		s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeEvaluation,
			"automation_skipped", fmt.Sprintf("escrow in %s state, nothing to evaluate", escrow.Status), false, now)
		return result, nil
	}

	milestones, err := s.milestones.ListByEscrow(ctx, escrow.EscrowID)
	if err != nil {
		return result, err
	}

	for _, m := range milestones {
		decision := domain.EvaluateMilestoneAutomation(escrow, m, now)
		result.Evaluated++
		switch decision.Action {
		case domain.AutomationActionComplete:
			m.Status = domain.MilestoneStatusCompleted
			completedAt := now
			m.CompletedAt = &completedAt
			m.UpdatedAt = now
			if err := s.milestones.Update(ctx, m); err != nil {
				return result, err
			}
			result.Completed++
			s.appendAutomationEvent(ctx, escrow.EscrowID, &m.MilestoneID, domain.AutomationEventTypeTransition,
				"auto_complete", decision.Reason, true, now)
		case domain.AutomationActionRelease:
			escrow, err = s.releaseMilestone(ctx, escrow, m, "released by automation", false)
			if err != nil {
				return result, err
			}
			result.Released++
		default:
			s.appendAutomationEvent(ctx, escrow.EscrowID, &m.MilestoneID, domain.AutomationEventTypeEvaluation,
				"rule_evaluated", decision.Reason, true, now)
		}
	}

	result.EscrowComplete = escrow.Status == domain.EscrowStatusCompleted
	return result, nil
}

// ProcessDueAutomation is the worker entrypoint: it sweeps automated, active
// escrows and runs the same evaluation pass the HTTP trigger uses.
func (s *Service) ProcessDueAutomation(ctx context.Context) (int, error) {
	escrows, err := s.escrows.ListAutomated(ctx, s.cfg.AutomationBatchSize)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, escrow := range escrows {
		if _, err := s.processAutomationPass(ctx, escrow); err != nil {
			slog.Default().WarnContext(ctx, "automation pass failed",
				"service", s.cfg.ServiceName,
				"module", "application",
				"layer", "application",
				"operation", "process_due_automation",
				"outcome", "failure",
				"escrow_id", escrow.EscrowID.String(),
				"error", err.Error(),
			)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Service) ListAutomationEvents(ctx context.Context, actor Actor, escrowID uuid.UUID, skip, limit int) ([]domain.AutomationEvent, error) {
	if actor.UserID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEscrowAccess(actor, escrow); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	return s.automation.ListByEscrow(ctx, escrowID, skip, limit)
}
