package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AutomationEventTypeEvaluation = "evaluation"
	AutomationEventTypeTransition = "transition"
	AutomationEventTypeRelease    = "release"
	AutomationEventTypeDispute    = "dispute"
)

// AutomationEvent is one append-only log entry describing an automated rule
// evaluation or lifecycle action on an escrow. Clients read but never write
// these.
type AutomationEvent struct {
	EventID     uuid.UUID
	EscrowID    uuid.UUID
	MilestoneID *uuid.UUID
	EventType   string
	EventName   string
	Description string
	Success     bool
	CreatedAt   time.Time
}

// AutomationDecision is the action the rule engine selected for one milestone
// during a ProcessAutomation pass.
type AutomationDecision struct {
	MilestoneID uuid.UUID
	Action      string
	Reason      string
}

const (
	AutomationActionNone     = "none"
	AutomationActionComplete = "auto_complete"
	AutomationActionRelease  = "auto_release"
)

// EvaluateMilestoneAutomation applies the automation rules for a single
// milestone at the given instant. The escrow is assumed active with
// automation enabled; dispute and manual handling happen in the caller.
func EvaluateMilestoneAutomation(escrow SmartEscrow, m SmartMilestone, now time.Time) AutomationDecision {
	decision := AutomationDecision{MilestoneID: m.MilestoneID, Action: AutomationActionNone}
	if !m.AutoReleaseEnabled || m.MilestoneType == MilestoneTypeManual {
		decision.Reason = "milestone not eligible for automation"
		return decision
	}

	switch m.Status {
	case MilestoneStatusPending, MilestoneStatusInProgress:
		if m.MilestoneType == MilestoneTypeTimeBased && m.DueDate != nil && !now.Before(*m.DueDate) {
			decision.Action = AutomationActionComplete
			decision.Reason = "due date reached for time_based milestone"
		} else {
			decision.Reason = "no rule matched"
		}
	case MilestoneStatusApproved:
		if m.ApprovedAt == nil {
			decision.Reason = "approved milestone missing approval timestamp"
			return decision
		}
		delay := m.GracePeriod()
		if escrow.AutoReleaseDelayHours > 0 {
			delay = time.Duration(escrow.AutoReleaseDelayHours) * time.Hour
		}
		if now.Sub(*m.ApprovedAt) < delay {
			decision.Reason = "grace period still open"
			return decision
		}
		if requiresQualityGate(m.MilestoneType) {
			if m.QualityScore == nil || *m.QualityScore < escrow.QualityThreshold {
				decision.Reason = "quality score below threshold"
				return decision
			}
		}
		decision.Action = AutomationActionRelease
		decision.Reason = "grace period elapsed after approval"
	case MilestoneStatusCompleted:
		if requiresQualityGate(m.MilestoneType) {
			if m.QualityScore == nil || *m.QualityScore < escrow.QualityThreshold {
				decision.Reason = "quality score below threshold"
				return decision
			}
		}
		decision.Action = AutomationActionRelease
		decision.Reason = "completed milestone eligible for release"
	default:
		decision.Reason = "milestone already settled"
	}
	return decision
}

func requiresQualityGate(milestoneType string) bool {
	return milestoneType == MilestoneTypeDeliverableBased || milestoneType == MilestoneTypeConditional
}
