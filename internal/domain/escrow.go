package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	EscrowStatusDraft         = "draft"
	EscrowStatusActive        = "active"
	EscrowStatusDisputeRaised = "dispute_raised"
	EscrowStatusCompleted     = "completed"
	EscrowStatusCancelled     = "cancelled"
)

// MilestoneSumEpsilon is the tolerance for comparing the milestone plan total
// against the escrow total. Amounts are client-entered decimals, so exact
// float equality is not required; anything off by a cent or more is rejected.
const MilestoneSumEpsilon = 0.01

// SmartEscrow is the held-funds agreement between a client and a freelancer.
// The service owns the full lifecycle; clients only issue commands against it.
type SmartEscrow struct {
	EscrowID              uuid.UUID
	ProjectID             uuid.UUID
	ClientID              uuid.UUID
	FreelancerID          uuid.UUID
	CurrencyID            string
	TotalAmount           float64
	ReleasedAmount        float64
	DisputedAmount        float64
	Status                string
	IsAutomated           bool
	AutomationEnabled     bool
	AutoReleaseDelayHours int
	QualityThreshold      float64
	DisputeReason         string
	CreatedAt             time.Time
	ActivatedAt           *time.Time
	CompletedAt           *time.Time
	UpdatedAt             time.Time
}

// CanTransition reports whether the escrow state machine permits moving from
// the current status to the target status.
func (e SmartEscrow) CanTransition(target string) bool {
	switch e.Status {
	case EscrowStatusDraft:
		return target == EscrowStatusActive || target == EscrowStatusCancelled
	case EscrowStatusActive:
		return target == EscrowStatusDisputeRaised || target == EscrowStatusCompleted
	case EscrowStatusDisputeRaised:
		return target == EscrowStatusActive || target == EscrowStatusCompleted || target == EscrowStatusCancelled
	default:
		return false
	}
}

func (e SmartEscrow) Closed() bool {
	return e.Status == EscrowStatusCompleted || e.Status == EscrowStatusCancelled
}

// RemainingAmount is the portion of the total not yet released.
func (e SmartEscrow) RemainingAmount() float64 {
	remaining := e.TotalAmount - e.ReleasedAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ProgressPercentage derives completion progress from milestone counts.
// Milestones in completed or released state both count as done.
func ProgressPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// ValidateMilestonePlan checks the submitted milestone plan against the escrow
// total: at least one milestone, non-empty title/description, positive
// amounts, and the sum invariant within MilestoneSumEpsilon.
func ValidateMilestonePlan(plan []SmartMilestone, totalAmount float64) error {
	if len(plan) < 1 {
		return ErrMilestoneFloor
	}
	sum := 0.0
	for _, m := range plan {
		if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.Description) == "" {
			return ErrInvalidInput
		}
		if m.Amount <= 0 {
			return ErrInvalidInput
		}
		sum += m.Amount
	}
	if math.Abs(sum-totalAmount) >= MilestoneSumEpsilon {
		return ErrMilestoneSumMismatch
	}
	return nil
}
