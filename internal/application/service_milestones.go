package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

// AddMilestone appends one milestone to a draft escrow. The sum invariant is
// deferred to activation so a plan can be built up incrementally.
func (s *Service) AddMilestone(ctx context.Context, actor Actor, escrowID uuid.UUID, input MilestonePlanInput) (domain.SmartMilestone, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartMilestone{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return domain.SmartMilestone{}, err
	}
	if actor.UserID != escrow.ClientID && !actor.IsAdmin() {
		return domain.SmartMilestone{}, domain.ErrAccessDenied
	}
	if escrow.Status != domain.EscrowStatusDraft {
		return domain.SmartMilestone{}, domain.ErrInvalidTransition
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" || input.Amount <= 0 {
		return domain.SmartMilestone{}, fmt.Errorf("%w: milestone requires title, description and positive amount", domain.ErrInvalidInput)
	}

	existing, err := s.milestones.ListByEscrow(ctx, escrowID)
	if err != nil {
		return domain.SmartMilestone{}, err
	}
	m, err := buildMilestone(escrowID, input, len(existing), s.nowFn())
	if err != nil {
		return domain.SmartMilestone{}, err
	}
	if err := s.milestones.Create(ctx, m); err != nil {
		return domain.SmartMilestone{}, err
	}
	return m, nil
}

func (s *Service) ListMilestones(ctx context.Context, actor Actor, escrowID uuid.UUID) ([]domain.SmartMilestone, error) {
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
	return s.milestones.ListByEscrow(ctx, escrowID)
}

// ApproveMilestone records the client's acceptance of delivered work. For
// approval_based milestones this starts the grace-period clock.
func (s *Service) ApproveMilestone(ctx context.Context, actor Actor, escrowID, milestoneID uuid.UUID) (domain.SmartMilestone, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartMilestone{}, err
	}
	escrow, milestone, err := s.loadEscrowMilestone(ctx, escrowID, milestoneID)
	if err != nil {
		return domain.SmartMilestone{}, err
	}
	if actor.UserID != escrow.ClientID && !actor.IsAdmin() {
		return domain.SmartMilestone{}, domain.ErrAccessDenied
	}
	if escrow.Status != domain.EscrowStatusActive {
		return domain.SmartMilestone{}, escrowCommandError(escrow)
	}
	switch milestone.Status {
	case domain.MilestoneStatusPending, domain.MilestoneStatusInProgress, domain.MilestoneStatusCompleted:
	default:
		return domain.SmartMilestone{}, domain.ErrInvalidTransition
	}

	now := s.nowFn()
	milestone.Status = domain.MilestoneStatusApproved
	milestone.ApprovedAt = &now
	milestone.UpdatedAt = now
	if err := s.milestones.Update(ctx, milestone); err != nil {
		return domain.SmartMilestone{}, err
	}
	s.appendAutomationEvent(ctx, escrowID, &milestoneID, domain.AutomationEventTypeTransition,
		"milestone_approved", "client approved milestone deliverable", true, now)
	return milestone, nil
}

// CompleteMilestone records the freelancer marking work as delivered, with an
// optional quality score used by the conditional/deliverable automation gate.
func (s *Service) CompleteMilestone(ctx context.Context, actor Actor, escrowID, milestoneID uuid.UUID, qualityScore *float64) (domain.SmartMilestone, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartMilestone{}, err
	}
	escrow, milestone, err := s.loadEscrowMilestone(ctx, escrowID, milestoneID)
	if err != nil {
		return domain.SmartMilestone{}, err
	}
	if actor.UserID != escrow.FreelancerID && !actor.IsAdmin() {
		return domain.SmartMilestone{}, domain.ErrAccessDenied
	}
	if escrow.Status != domain.EscrowStatusActive {
		return domain.SmartMilestone{}, escrowCommandError(escrow)
	}
	switch milestone.Status {
	case domain.MilestoneStatusPending, domain.MilestoneStatusInProgress, domain.MilestoneStatusApproved:
	default:
		return domain.SmartMilestone{}, domain.ErrInvalidTransition
	}

	now := s.nowFn()
	milestone.Status = domain.MilestoneStatusCompleted
	milestone.CompletedAt = &now
	if qualityScore != nil {
		milestone.QualityScore = qualityScore
	}
	milestone.UpdatedAt = now
	if err := s.milestones.Update(ctx, milestone); err != nil {
		return domain.SmartMilestone{}, err
	}
	s.appendAutomationEvent(ctx, escrowID, &milestoneID, domain.AutomationEventTypeTransition,
		"milestone_completed", "freelancer marked milestone as delivered", true, now)
	return milestone, nil
}

// ReleaseFunds releases a single milestone's funds, or with force_release the
// entire remaining balance regardless of milestone state. Forcing is an
// admin-only override for stuck escrows.
func (s *Service) ReleaseFunds(ctx context.Context, actor Actor, input ReleaseFundsInput) (domain.SmartEscrow, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartEscrow{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, input.EscrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if actor.UserID != escrow.ClientID && !actor.IsAdmin() {
		return domain.SmartEscrow{}, domain.ErrAccessDenied
	}
	if input.ForceRelease && !actor.IsAdmin() {
		return domain.SmartEscrow{}, domain.ErrAccessDenied
	}
	if escrow.Status != domain.EscrowStatusActive {
		return domain.SmartEscrow{}, escrowCommandError(escrow)
	}

	if input.ForceRelease {
		return s.forceReleaseAll(ctx, escrow, input.ReleaseNotes)
	}

	if input.MilestoneID == nil {
		return domain.SmartEscrow{}, fmt.Errorf("%w: milestone_id required unless force_release", domain.ErrInvalidInput)
	}
	milestone, err := s.milestones.GetByID(ctx, *input.MilestoneID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if milestone.EscrowID != escrow.EscrowID {
		return domain.SmartEscrow{}, domain.ErrNotFound
	}
	if !milestone.Releasable() {
		return domain.SmartEscrow{}, domain.ErrInvalidTransition
	}
	escrow, err = s.releaseMilestone(ctx, escrow, milestone, input.ReleaseNotes, false)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	return escrow, nil
}

func (s *Service) forceReleaseAll(ctx context.Context, escrow domain.SmartEscrow, notes string) (domain.SmartEscrow, error) {
	milestones, err := s.milestones.ListByEscrow(ctx, escrow.EscrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	for _, m := range milestones {
		if m.Status == domain.MilestoneStatusReleased || m.Status == domain.MilestoneStatusCancelled {
			continue
		}
		escrow, err = s.releaseMilestone(ctx, escrow, m, notes, true)
		if err != nil {
			return domain.SmartEscrow{}, err
		}
	}
	return escrow, nil
}

// releaseMilestone applies a single release: milestone goes to released, the
// escrow accumulates the amount, and the escrow completes when every
// milestone is settled.
func (s *Service) releaseMilestone(ctx context.Context, escrow domain.SmartEscrow, milestone domain.SmartMilestone, notes string, forced bool) (domain.SmartEscrow, error) {
	now := s.nowFn()
	milestone.Status = domain.MilestoneStatusReleased
	milestone.ReleasedAt = &now
	milestone.UpdatedAt = now
	if err := s.milestones.Update(ctx, milestone); err != nil {
		return domain.SmartEscrow{}, err
	}

	escrow.ReleasedAmount += milestone.Amount
	if escrow.ReleasedAmount > escrow.TotalAmount {
		escrow.ReleasedAmount = escrow.TotalAmount
	}
	escrow.UpdatedAt = now

	milestones, err := s.milestones.ListByEscrow(ctx, escrow.EscrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	settled := true
	for _, m := range milestones {
		if m.Status != domain.MilestoneStatusReleased && m.Status != domain.MilestoneStatusCancelled {
			settled = false
			break
		}
	}
	if settled && escrow.CanTransition(domain.EscrowStatusCompleted) {
		escrow.Status = domain.EscrowStatusCompleted
		escrow.CompletedAt = &now
	}
	if err := s.escrows.Update(ctx, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}

	description := "funds released for milestone"
	if forced {
		description = "funds force-released by administrator"
	}
	s.appendAutomationEvent(ctx, escrow.EscrowID, &milestone.MilestoneID, domain.AutomationEventTypeRelease,
		"milestone_released", description, true, now)
	s.enqueueMilestoneReleased(ctx, escrow, milestone, notes, forced)
	if escrow.Status == domain.EscrowStatusCompleted {
		s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeTransition,
			"escrow_completed", "all milestones released", true, now)
		s.enqueueEscrowEvent(ctx, domain.EventEscrowCompleted, escrow, nil)
	}
	return escrow, nil
}

func (s *Service) loadEscrowMilestone(ctx context.Context, escrowID, milestoneID uuid.UUID) (domain.SmartEscrow, domain.SmartMilestone, error) {
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return domain.SmartEscrow{}, domain.SmartMilestone{}, err
	}
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return domain.SmartEscrow{}, domain.SmartMilestone{}, err
	}
	if milestone.EscrowID != escrow.EscrowID {
		return domain.SmartEscrow{}, domain.SmartMilestone{}, domain.ErrNotFound
	}
	return escrow, milestone, nil
}

func escrowCommandError(escrow domain.SmartEscrow) error {
	switch escrow.Status {
	case domain.EscrowStatusDisputeRaised:
		return domain.ErrEscrowDisputed
	case domain.EscrowStatusCompleted, domain.EscrowStatusCancelled:
		return domain.ErrEscrowClosed
	default:
		return domain.ErrInvalidTransition
	}
}
