package http

import (
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func toEscrowResponse(e domain.SmartEscrow) contracts.EscrowResponse {
	return contracts.EscrowResponse{
		EscrowID:              e.EscrowID.String(),
		ProjectID:             e.ProjectID.String(),
		ClientID:              e.ClientID.String(),
		FreelancerID:          e.FreelancerID.String(),
		CurrencyID:            e.CurrencyID,
		TotalAmount:           e.TotalAmount,
		ReleasedAmount:        e.ReleasedAmount,
		DisputedAmount:        e.DisputedAmount,
		RemainingAmount:       e.RemainingAmount(),
		Status:                e.Status,
		IsAutomated:           e.IsAutomated,
		AutomationEnabled:     e.AutomationEnabled,
		AutoReleaseDelayHours: e.AutoReleaseDelayHours,
		QualityThreshold:      e.QualityThreshold,
		DisputeReason:         e.DisputeReason,
		CreatedAt:             e.CreatedAt,
		ActivatedAt:           e.ActivatedAt,
		CompletedAt:           e.CompletedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func toMilestoneResponse(m domain.SmartMilestone) contracts.MilestoneResponse {
	return contracts.MilestoneResponse{
		MilestoneID:        m.MilestoneID.String(),
		EscrowID:           m.EscrowID.String(),
		Title:              m.Title,
		Description:        m.Description,
		Amount:             m.Amount,
		OrderIndex:         m.OrderIndex,
		Status:             m.Status,
		MilestoneType:      m.MilestoneType,
		AutoReleaseEnabled: m.AutoReleaseEnabled,
		ApprovalRequired:   m.ApprovalRequired,
		GracePeriodHours:   m.GracePeriodHours,
		QualityScore:       m.QualityScore,
		AcceptanceCriteria: m.AcceptanceCriteria,
		DueDate:            m.DueDate,
		ApprovedAt:         m.ApprovedAt,
		CompletedAt:        m.CompletedAt,
		ReleasedAt:         m.ReleasedAt,
		CreatedAt:          m.CreatedAt,
	}
}

func toEscrowDetailResponse(detail application.EscrowDetail) contracts.EscrowDetailResponse {
	milestones := make([]contracts.MilestoneResponse, 0, len(detail.Milestones))
	for _, m := range detail.Milestones {
		milestones = append(milestones, toMilestoneResponse(m))
	}
	return contracts.EscrowDetailResponse{
		Escrow:             toEscrowResponse(detail.Escrow),
		Milestones:         milestones,
		ProgressPercentage: detail.ProgressPercentage,
	}
}

func toAutomationEventResponse(e domain.AutomationEvent) contracts.AutomationEventResponse {
	out := contracts.AutomationEventResponse{
		EventID:     e.EventID.String(),
		EscrowID:    e.EscrowID.String(),
		EventType:   e.EventType,
		EventName:   e.EventName,
		Description: e.Description,
		Success:     e.Success,
		CreatedAt:   e.CreatedAt,
	}
	if e.MilestoneID != nil {
		out.MilestoneID = e.MilestoneID.String()
	}
	return out
}

func toUserResponse(u domain.User) contracts.UserResponse {
	return contracts.UserResponse{
		UserID:    u.UserID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
