package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

// EscrowDetail bundles the escrow with its milestone list and derived
// progress, matching what the management view renders in one fetch.
type EscrowDetail struct {
	Escrow             domain.SmartEscrow
	Milestones         []domain.SmartMilestone
	ProgressPercentage float64
}

// CreateEscrow persists a draft escrow together with its complete milestone
// plan in one transaction. There is deliberately no escrow-then-milestones
// sequence to leave half-created: either the whole plan lands or nothing does.
func (s *Service) CreateEscrow(ctx context.Context, actor Actor, input CreateEscrowInput) (EscrowDetail, error) {
	if err := requireIdempotency(actor); err != nil {
		return EscrowDetail{}, err
	}
	if input.ProjectID == uuid.Nil || input.ClientID == uuid.Nil || input.FreelancerID == uuid.Nil {
		return EscrowDetail{}, fmt.Errorf("%w: project, client and freelancer are required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.CurrencyID) == "" {
		return EscrowDetail{}, fmt.Errorf("%w: currency required", domain.ErrInvalidInput)
	}
	if input.TotalAmount <= 0 {
		return EscrowDetail{}, fmt.Errorf("%w: total amount must be positive", domain.ErrInvalidInput)
	}
	if actor.UserID != input.ClientID && !actor.IsAdmin() {
		return EscrowDetail{}, domain.ErrAccessDenied
	}

	now := s.nowFn()
	escrow := domain.SmartEscrow{
		EscrowID:              uuid.New(),
		ProjectID:             input.ProjectID,
		ClientID:              input.ClientID,
		FreelancerID:          input.FreelancerID,
		CurrencyID:            strings.TrimSpace(input.CurrencyID),
		TotalAmount:           input.TotalAmount,
		Status:                domain.EscrowStatusDraft,
		IsAutomated:           input.IsAutomated,
		AutomationEnabled:     input.AutomationEnabled,
		AutoReleaseDelayHours: input.AutoReleaseDelayHours,
		QualityThreshold:      input.QualityThreshold,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	plan := make([]domain.SmartMilestone, 0, len(input.Milestones))
	for i, item := range input.Milestones {
		m, err := buildMilestone(escrow.EscrowID, item, i, now)
		if err != nil {
			return EscrowDetail{}, err
		}
		plan = append(plan, m)
	}
	if err := domain.ValidateMilestonePlan(plan, escrow.TotalAmount); err != nil {
		return EscrowDetail{}, err
	}

	// Claim the key only for a request that passed validation. A rejected
	// request leaves no reservation behind, so the caller can fix the payload
	// and retry under a fresh key or the same one.
	requestHash := hashRequest(input)
	if cached, ok, err := s.beginIdempotent(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return EscrowDetail{}, err
	} else if ok {
		var replay EscrowDetail
		if err := json.Unmarshal(cached, &replay); err == nil {
			return replay, nil
		}
	}

	payload, _ := json.Marshal(contracts.EventEnvelope{
		EventID:      uuid.NewString(),
		EventType:    domain.EventEscrowCreated,
		OccurredAt:   now,
		PartitionKey: escrow.EscrowID.String(),
		Data: contracts.EscrowCreatedData{
			EscrowID:       escrow.EscrowID.String(),
			ProjectID:      escrow.ProjectID.String(),
			ClientID:       escrow.ClientID.String(),
			FreelancerID:   escrow.FreelancerID.String(),
			TotalAmount:    escrow.TotalAmount,
			MilestoneCount: len(plan),
		},
	})
	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    domain.EventEscrowCreated,
		PartitionKey: escrow.EscrowID.String(),
		Payload:      payload,
		OccurredAt:   now,
	}

	if err := s.escrows.CreateWithMilestones(ctx, escrow, plan, event); err != nil {
		return EscrowDetail{}, err
	}

	detail := EscrowDetail{Escrow: escrow, Milestones: plan, ProgressPercentage: 0}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 201, detail)
	return detail, nil
}

func buildMilestone(escrowID uuid.UUID, item MilestonePlanInput, position int, now time.Time) (domain.SmartMilestone, error) {
	milestoneType := domain.NormalizeMilestoneType(item.MilestoneType)
	if milestoneType == "" {
		return domain.SmartMilestone{}, fmt.Errorf("%w: unknown milestone type %q", domain.ErrInvalidInput, item.MilestoneType)
	}

	m := domain.NewMilestoneDefaults()
	m.MilestoneID = uuid.New()
	m.EscrowID = escrowID
	m.Title = strings.TrimSpace(item.Title)
	m.Description = strings.TrimSpace(item.Description)
	m.Amount = item.Amount
	m.OrderIndex = position
	m.MilestoneType = milestoneType
	m.AcceptanceCriteria = strings.TrimSpace(item.AcceptanceCriteria)
	m.DueDate = item.DueDate
	m.CreatedAt = now
	m.UpdatedAt = now
	if item.AutoReleaseEnabled != nil {
		m.AutoReleaseEnabled = *item.AutoReleaseEnabled
	}
	if item.ApprovalRequired != nil {
		m.ApprovalRequired = *item.ApprovalRequired
	}
	if item.GracePeriodHours != nil && *item.GracePeriodHours > 0 {
		m.GracePeriodHours = *item.GracePeriodHours
	}
	return m, nil
}

// GetEscrow returns the escrow with its milestones and derived progress.
func (s *Service) GetEscrow(ctx context.Context, actor Actor, escrowID uuid.UUID) (EscrowDetail, error) {
	if actor.UserID == uuid.Nil {
		return EscrowDetail{}, domain.ErrUnauthorized
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return EscrowDetail{}, err
	}
	if err := authorizeEscrowAccess(actor, escrow); err != nil {
		return EscrowDetail{}, err
	}
	milestones, err := s.milestones.ListByEscrow(ctx, escrowID)
	if err != nil {
		return EscrowDetail{}, err
	}
	done := 0
	for _, m := range milestones {
		if m.Done() {
			done++
		}
	}
	return EscrowDetail{
		Escrow:             escrow,
		Milestones:         milestones,
		ProgressPercentage: domain.ProgressPercentage(done, len(milestones)),
	}, nil
}

// GetEscrowInternal serves trusted service-to-service lookups. Callers reach
// this over the internal gRPC surface, so no actor check applies here.
func (s *Service) GetEscrowInternal(ctx context.Context, escrowID uuid.UUID) (EscrowDetail, error) {
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return EscrowDetail{}, err
	}
	milestones, err := s.milestones.ListByEscrow(ctx, escrowID)
	if err != nil {
		return EscrowDetail{}, err
	}
	done := 0
	for _, m := range milestones {
		if m.Done() {
			done++
		}
	}
	return EscrowDetail{
		Escrow:             escrow,
		Milestones:         milestones,
		ProgressPercentage: domain.ProgressPercentage(done, len(milestones)),
	}, nil
}

// ListEscrows pages through escrows visible to the actor. Admins see all,
// participants see only their own.
func (s *Service) ListEscrows(ctx context.Context, actor Actor, status string, skip, limit int) ([]domain.SmartEscrow, error) {
	if actor.UserID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	filter := ports.EscrowFilter{Status: strings.TrimSpace(status), Skip: skip, Limit: limit}
	if !actor.IsAdmin() {
		switch actor.Role {
		case domain.RoleFreelancer:
			id := actor.UserID
			filter.FreelancerID = &id
		default:
			id := actor.UserID
			filter.ClientID = &id
		}
	}
	return s.escrows.List(ctx, filter)
}

// ActivateEscrow moves a draft escrow into active state after re-checking the
// milestone sum invariant, since milestones may have been added post-creation.
func (s *Service) ActivateEscrow(ctx context.Context, actor Actor, escrowID uuid.UUID) (domain.SmartEscrow, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartEscrow{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if actor.UserID != escrow.ClientID && !actor.IsAdmin() {
		return domain.SmartEscrow{}, domain.ErrAccessDenied
	}
	if !escrow.CanTransition(domain.EscrowStatusActive) {
		return domain.SmartEscrow{}, domain.ErrInvalidTransition
	}
	milestones, err := s.milestones.ListByEscrow(ctx, escrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if err := domain.ValidateMilestonePlan(milestones, escrow.TotalAmount); err != nil {
		return domain.SmartEscrow{}, err
	}

	now := s.nowFn()
	escrow.Status = domain.EscrowStatusActive
	escrow.ActivatedAt = &now
	escrow.UpdatedAt = now
	if err := s.escrows.Update(ctx, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}
	s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeTransition,
		"escrow_activated", "escrow moved from draft to active", true, now)
	s.enqueueEscrowEvent(ctx, domain.EventEscrowActivated, escrow, nil)
	return escrow, nil
}

// CancelEscrow cancels a draft escrow. Active escrows can only be cancelled
// through dispute resolution.
func (s *Service) CancelEscrow(ctx context.Context, actor Actor, escrowID uuid.UUID) (domain.SmartEscrow, error) {
	if err := requireIdempotency(actor); err != nil {
		return domain.SmartEscrow{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return domain.SmartEscrow{}, err
	}
	if actor.UserID != escrow.ClientID && !actor.IsAdmin() {
		return domain.SmartEscrow{}, domain.ErrAccessDenied
	}
	if escrow.Status != domain.EscrowStatusDraft {
		return domain.SmartEscrow{}, domain.ErrInvalidTransition
	}

	now := s.nowFn()
	escrow.Status = domain.EscrowStatusCancelled
	escrow.UpdatedAt = now
	if err := s.escrows.Update(ctx, escrow); err != nil {
		return domain.SmartEscrow{}, err
	}
	s.appendAutomationEvent(ctx, escrow.EscrowID, nil, domain.AutomationEventTypeTransition,
		"escrow_cancelled", "draft escrow cancelled", true, now)
	s.enqueueEscrowEvent(ctx, domain.EventEscrowCancelled, escrow, nil)
	return escrow, nil
}

func authorizeEscrowAccess(actor Actor, escrow domain.SmartEscrow) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.UserID == escrow.ClientID || actor.UserID == escrow.FreelancerID {
		return nil
	}
	return domain.ErrAccessDenied
}
