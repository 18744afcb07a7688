package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusApproved   = "approved"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusReleased   = "released"
	MilestoneStatusDisputed   = "disputed"
	MilestoneStatusCancelled  = "cancelled"
)

const (
	MilestoneTypeManual           = "manual"
	MilestoneTypeTimeBased        = "time_based"
	MilestoneTypeDeliverableBased = "deliverable_based"
	MilestoneTypeApprovalBased    = "approval_based"
	MilestoneTypeConditional      = "conditional"
)

// DefaultGracePeriodHours applies to approval_based milestones without an
// explicit grace period: once approved, funds auto-release after this window
// unless the client objects.
const DefaultGracePeriodHours = 24

// SmartMilestone is a discrete, priced unit of deliverable work within an
// escrow. OrderIndex records plan position; it is informational sequencing,
// not a gating precondition for release.
type SmartMilestone struct {
	MilestoneID        uuid.UUID
	EscrowID           uuid.UUID
	Title              string
	Description        string
	Amount             float64
	OrderIndex         int
	Status             string
	MilestoneType      string
	AutoReleaseEnabled bool
	ApprovalRequired   bool
	GracePeriodHours   int
	QualityScore       *float64
	AcceptanceCriteria string
	DueDate            *time.Time
	ApprovedAt         *time.Time
	CompletedAt        *time.Time
	ReleasedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewMilestoneDefaults returns a milestone pre-filled with the plan defaults:
// approval_based type, approval required, 24h grace period.
func NewMilestoneDefaults() SmartMilestone {
	return SmartMilestone{
		Status:             MilestoneStatusPending,
		MilestoneType:      MilestoneTypeApprovalBased,
		ApprovalRequired:   true,
		GracePeriodHours:   DefaultGracePeriodHours,
		AutoReleaseEnabled: true,
	}
}

// NormalizeMilestoneType maps free-form input to a canonical milestone type,
// returning empty string for unknown values.
func NormalizeMilestoneType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", MilestoneTypeApprovalBased:
		return MilestoneTypeApprovalBased
	case MilestoneTypeManual:
		return MilestoneTypeManual
	case MilestoneTypeTimeBased:
		return MilestoneTypeTimeBased
	case MilestoneTypeDeliverableBased:
		return MilestoneTypeDeliverableBased
	case MilestoneTypeConditional:
		return MilestoneTypeConditional
	default:
		return ""
	}
}

// Done reports whether the milestone counts toward escrow progress.
func (m SmartMilestone) Done() bool {
	return m.Status == MilestoneStatusCompleted || m.Status == MilestoneStatusReleased
}

// Releasable reports whether the milestone may have its funds released by a
// direct command (not force_release).
func (m SmartMilestone) Releasable() bool {
	switch m.Status {
	case MilestoneStatusApproved, MilestoneStatusCompleted:
		return true
	default:
		return false
	}
}

// GracePeriod returns the effective grace window for an approved milestone.
func (m SmartMilestone) GracePeriod() time.Duration {
	hours := m.GracePeriodHours
	if hours <= 0 {
		hours = DefaultGracePeriodHours
	}
	return time.Duration(hours) * time.Hour
}
