package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEvaluateMilestoneAutomationTimeBased(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	escrow := SmartEscrow{AutomationEnabled: true}

	due := now.Add(-time.Hour)
	m := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusPending,
		MilestoneType:      MilestoneTypeTimeBased,
		AutoReleaseEnabled: true,
		DueDate:            &due,
	}
	decision := EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionComplete {
		t.Fatalf("past-due time_based milestone: got %s, want %s (%s)", decision.Action, AutomationActionComplete, decision.Reason)
	}

	future := now.Add(time.Hour)
	m.DueDate = &future
	decision = EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionNone {
		t.Fatalf("future-due milestone should not auto-complete, got %s", decision.Action)
	}
}

func TestEvaluateMilestoneAutomationGracePeriod(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	escrow := SmartEscrow{AutomationEnabled: true}

	approvedRecently := now.Add(-time.Hour)
	m := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusApproved,
		MilestoneType:      MilestoneTypeApprovalBased,
		AutoReleaseEnabled: true,
		GracePeriodHours:   DefaultGracePeriodHours,
		ApprovedAt:         &approvedRecently,
	}
	decision := EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionNone {
		t.Fatalf("grace period still open, got action %s", decision.Action)
	}

	approvedLongAgo := now.Add(-25 * time.Hour)
	m.ApprovedAt = &approvedLongAgo
	decision = EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionRelease {
		t.Fatalf("elapsed grace period should release, got %s (%s)", decision.Action, decision.Reason)
	}

	// The escrow-level delay overrides the milestone grace period.
	escrow.AutoReleaseDelayHours = 48
	decision = EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionNone {
		t.Fatalf("escrow delay of 48h should hold a 25h-old approval, got %s", decision.Action)
	}
}

func TestEvaluateMilestoneAutomationQualityGate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	escrow := SmartEscrow{AutomationEnabled: true, QualityThreshold: 4.0}

	low := 3.0
	m := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusCompleted,
		MilestoneType:      MilestoneTypeDeliverableBased,
		AutoReleaseEnabled: true,
		QualityScore:       &low,
	}
	decision := EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionNone {
		t.Fatalf("low quality score should block release, got %s", decision.Action)
	}

	m.QualityScore = nil
	decision = EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionNone {
		t.Fatalf("missing quality score should block release, got %s", decision.Action)
	}

	high := 4.5
	m.QualityScore = &high
	decision = EvaluateMilestoneAutomation(escrow, m, now)
	if decision.Action != AutomationActionRelease {
		t.Fatalf("passing quality score should release, got %s (%s)", decision.Action, decision.Reason)
	}

	// Approval-based milestones have no quality gate.
	plain := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusCompleted,
		MilestoneType:      MilestoneTypeApprovalBased,
		AutoReleaseEnabled: true,
	}
	decision = EvaluateMilestoneAutomation(escrow, plain, now)
	if decision.Action != AutomationActionRelease {
		t.Fatalf("approval_based completed milestone should release without score, got %s", decision.Action)
	}
}

func TestEvaluateMilestoneAutomationIneligible(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	escrow := SmartEscrow{AutomationEnabled: true}

	manual := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusCompleted,
		MilestoneType:      MilestoneTypeManual,
		AutoReleaseEnabled: true,
	}
	if d := EvaluateMilestoneAutomation(escrow, manual, now); d.Action != AutomationActionNone {
		t.Fatalf("manual milestone must never automate, got %s", d.Action)
	}

	disabled := SmartMilestone{
		MilestoneID:   uuid.New(),
		Status:        MilestoneStatusCompleted,
		MilestoneType: MilestoneTypeApprovalBased,
	}
	if d := EvaluateMilestoneAutomation(escrow, disabled, now); d.Action != AutomationActionNone {
		t.Fatalf("auto-release disabled milestone must not automate, got %s", d.Action)
	}

	released := SmartMilestone{
		MilestoneID:        uuid.New(),
		Status:             MilestoneStatusReleased,
		MilestoneType:      MilestoneTypeApprovalBased,
		AutoReleaseEnabled: true,
	}
	if d := EvaluateMilestoneAutomation(escrow, released, now); d.Action != AutomationActionNone {
		t.Fatalf("settled milestone must not automate, got %s", d.Action)
	}
}

func TestNewMilestoneDefaults(t *testing.T) {
	t.Parallel()

	m := NewMilestoneDefaults()
	if m.MilestoneType != MilestoneTypeApprovalBased {
		t.Fatalf("default type = %s, want approval_based", m.MilestoneType)
	}
	if !m.ApprovalRequired || !m.AutoReleaseEnabled {
		t.Fatalf("defaults should require approval and enable auto-release: %+v", m)
	}
	if m.GracePeriodHours != DefaultGracePeriodHours {
		t.Fatalf("default grace period = %d, want %d", m.GracePeriodHours, DefaultGracePeriodHours)
	}
	if m.Status != MilestoneStatusPending {
		t.Fatalf("default status = %s, want pending", m.Status)
	}
}

func TestNormalizeMilestoneType(t *testing.T) {
	t.Parallel()

	if got := NormalizeMilestoneType(""); got != MilestoneTypeApprovalBased {
		t.Fatalf("empty type should default to approval_based, got %q", got)
	}
	if got := NormalizeMilestoneType("  Time_Based "); got != MilestoneTypeTimeBased {
		t.Fatalf("normalize failed, got %q", got)
	}
	if got := NormalizeMilestoneType("bogus"); got != "" {
		t.Fatalf("unknown type should map to empty, got %q", got)
	}
}
