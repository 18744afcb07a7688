package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

func toEscrowModel(e domain.SmartEscrow) escrowModel {
	return escrowModel{
		EscrowID:              e.EscrowID,
		ProjectID:             e.ProjectID,
		ClientID:              e.ClientID,
		FreelancerID:          e.FreelancerID,
		CurrencyID:            e.CurrencyID,
		TotalAmount:           e.TotalAmount,
		ReleasedAmount:        e.ReleasedAmount,
		DisputedAmount:        e.DisputedAmount,
		Status:                e.Status,
		IsAutomated:           e.IsAutomated,
		AutomationEnabled:     e.AutomationEnabled,
		AutoReleaseDelayHours: e.AutoReleaseDelayHours,
		QualityThreshold:      e.QualityThreshold,
		DisputeReason:         e.DisputeReason,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
		ActivatedAt:           e.ActivatedAt,
		CompletedAt:           e.CompletedAt,
	}
}

func toDomainEscrow(row escrowModel) domain.SmartEscrow {
	return domain.SmartEscrow{
		EscrowID:              row.EscrowID,
		ProjectID:             row.ProjectID,
		ClientID:              row.ClientID,
		FreelancerID:          row.FreelancerID,
		CurrencyID:            row.CurrencyID,
		TotalAmount:           row.TotalAmount,
		ReleasedAmount:        row.ReleasedAmount,
		DisputedAmount:        row.DisputedAmount,
		Status:                row.Status,
		IsAutomated:           row.IsAutomated,
		AutomationEnabled:     row.AutomationEnabled,
		AutoReleaseDelayHours: row.AutoReleaseDelayHours,
		QualityThreshold:      row.QualityThreshold,
		DisputeReason:         row.DisputeReason,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
		ActivatedAt:           row.ActivatedAt,
		CompletedAt:           row.CompletedAt,
	}
}

func toMilestoneModel(m domain.SmartMilestone) milestoneModel {
	return milestoneModel{
		MilestoneID:        m.MilestoneID,
		EscrowID:           m.EscrowID,
		OrderIndex:         m.OrderIndex,
		Title:              m.Title,
		Description:        m.Description,
		Amount:             m.Amount,
		MilestoneType:      m.MilestoneType,
		Status:             m.Status,
		AutoReleaseEnabled: m.AutoReleaseEnabled,
		ApprovalRequired:   m.ApprovalRequired,
		GracePeriodHours:   m.GracePeriodHours,
		AcceptanceCriteria: m.AcceptanceCriteria,
		QualityScore:       m.QualityScore,
		DueDate:            m.DueDate,
		ApprovedAt:         m.ApprovedAt,
		CompletedAt:        m.CompletedAt,
		ReleasedAt:         m.ReleasedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toDomainMilestone(row milestoneModel) domain.SmartMilestone {
	return domain.SmartMilestone{
		MilestoneID:        row.MilestoneID,
		EscrowID:           row.EscrowID,
		OrderIndex:         row.OrderIndex,
		Title:              row.Title,
		Description:        row.Description,
		Amount:             row.Amount,
		MilestoneType:      row.MilestoneType,
		Status:             row.Status,
		AutoReleaseEnabled: row.AutoReleaseEnabled,
		ApprovalRequired:   row.ApprovalRequired,
		GracePeriodHours:   row.GracePeriodHours,
		AcceptanceCriteria: row.AcceptanceCriteria,
		QualityScore:       row.QualityScore,
		DueDate:            row.DueDate,
		ApprovedAt:         row.ApprovedAt,
		CompletedAt:        row.CompletedAt,
		ReleasedAt:         row.ReleasedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func toAutomationEventModel(e domain.AutomationEvent) automationEventModel {
	return automationEventModel{
		EventID:     e.EventID,
		EscrowID:    e.EscrowID,
		MilestoneID: e.MilestoneID,
		EventType:   e.EventType,
		EventName:   e.EventName,
		Description: e.Description,
		Success:     e.Success,
		CreatedAt:   e.CreatedAt,
	}
}

func toDomainAutomationEvent(row automationEventModel) domain.AutomationEvent {
	return domain.AutomationEvent{
		EventID:     row.EventID,
		EscrowID:    row.EscrowID,
		MilestoneID: row.MilestoneID,
		EventType:   row.EventType,
		EventName:   row.EventName,
		Description: row.Description,
		Success:     row.Success,
		CreatedAt:   row.CreatedAt,
	}
}

func toUserModel(u domain.User) userModel {
	return userModel{
		UserID:       u.UserID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsActive:     u.IsActive,
		DeletedAt:    u.DeletedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:       row.UserID,
		Email:        row.Email,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		IsActive:     row.IsActive,
		DeletedAt:    row.DeletedAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID:      row.SessionID,
		UserID:         row.UserID,
		Surface:        row.Surface,
		IPAddress:      ip,
		UserAgent:      row.UserAgent,
		CreatedAt:      row.CreatedAt,
		LastActivityAt: row.LastActivityAt,
		ExpiresAt:      row.ExpiresAt,
		RevokedAt:      row.RevokedAt,
	}
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	lastErr := ""
	if row.LastError != nil {
		lastErr = *row.LastError
	}
	return ports.OutboxRecord{
		OutboxID:     row.OutboxID,
		EventType:    row.EventType,
		PartitionKey: row.PartitionKey,
		Payload:      []byte(row.Payload),
		CreatedAt:    row.CreatedAt,
		PublishedAt:  row.PublishedAt,
		RetryCount:   row.RetryCount,
		LastError:    lastErr,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
