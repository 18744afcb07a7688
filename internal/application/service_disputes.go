package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

// RaiseDispute moves an active escrow into dispute_raised. Automation and
// releases freeze until an administrator resolves the dispute.
func (s *Service) RaiseDispute(ctx context.Context, actor Actor, input RaiseDisputeInput) (domain.SmartEscrow, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartEscrow{}, err
	}
	if strings.TrimSpace(input.Reason) == "" {
		return domain.SmartEscrow{}, fmt.Errorf("%w: dispute reason required", domain.ErrInvalidInput)
	}
	escrow, err := s.escrows.GetByID(ctx, input.EscrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if err := authorizeEscrowAccess(actor, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}
	if !escrow.CanTransition(domain.EscrowStatusDisputeRaised) {
		return domain.SmartEscrow{}, escrowCommandError(escrow)
	}

	now := s.nowFn()
	escrow.Status = domain.EscrowStatusDisputeRaised
	escrow.DisputedAmount = escrow.RemainingAmount()
	escrow.DisputeReason = strings.TrimSpace(input.Reason)
	escrow.UpdatedAt = now
	if err := s.escrows.Update(ctx, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}
	s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeDispute,
		"dispute_raised", "participant raised a dispute; automation frozen", true, now)
	s.enqueueDisputeEvent(ctx, domain.EventDisputeRaised, escrow, actor, "")
	return escrow, nil
}

// ResolveDispute settles a dispute with one of three outcomes: release the
// remaining funds to the freelancer, refund the client, or resume the escrow.
// Only administrators may resolve.
func (s *Service) ResolveDispute(ctx context.Context, actor Actor, input ResolveDisputeInput) (domain.SmartEscrow, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartEscrow{}, err
	}
	if !actor.IsAdmin() {
		return domain.SmartEscrow{}, domain.ErrAccessDenied
	}
	escrow, err := s.escrows.GetByID(ctx, input.EscrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if escrow.Status != domain.EscrowStatusDisputeRaised {
		return domain.SmartEscrow{}, domain.ErrInvalidTransition
	}

	now := s.nowFn()
	outcome := strings.ToLower(strings.TrimSpace(input.Outcome))
	switch outcome {
	case DisputeOutcomeRelease:
		// Settle every outstanding milestone so the escrow's completion and
		// its milestone rows agree.
		escrow, err = s.forceReleaseAll(ctx, escrow, "dispute resolved in freelancer's favor")
		if err != nil {
			return domain.SmartEscrow{}, err
		}
		if escrow.Status != domain.EscrowStatusCompleted {
			escrow.Status = domain.EscrowStatusCompleted
			escrow.CompletedAt = &now
		}
	case DisputeOutcomeRefund:
		if err := s.cancelOutstandingMilestones(ctx, escrow.EscrowID, now); err != nil {
			return domain.SmartEscrow{}, err
		}
		escrow.Status = domain.EscrowStatusCancelled
	case DisputeOutcomeResume:
		escrow.Status = domain.EscrowStatusActive
	default:
		return domain.SmartEscrow{}, fmt.Errorf("%w: unknown dispute outcome %q", domain.ErrInvalidInput, input.Outcome)
	}
	escrow.DisputedAmount = 0
	escrow.UpdatedAt = now
	if err := s.escrows.Update(ctx, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}
	s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeDispute,
		"dispute_resolved", fmt.Sprintf("dispute resolved with outcome %s", outcome), true, now)
	s.enqueueDisputeEvent(ctx, domain.EventDisputeResolved, escrow, actor, outcome)
	return escrow, nil
}

func (s *Service) cancelOutstandingMilestones(ctx context.Context, escrowID uuid.UUID, now time.Time) error {
	milestones, err := s.milestones.ListByEscrow(ctx, escrowID)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		if m.Status == domain.MilestoneStatusReleased || m.Status == domain.MilestoneStatusCancelled {
			continue
		}
		m.Status = domain.MilestoneStatusCancelled
		m.UpdatedAt = now
		if err := s.milestones.Update(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
