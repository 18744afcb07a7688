package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func TestCreateEscrowEnforcesSumInvariant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	_, err := f.service.CreateEscrow(context.Background(), actorFor(client), CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: freelancer.UserID,
		CurrencyID:   "USD",
		TotalAmount:  1000,
		Milestones: []MilestonePlanInput{
			{Title: "first", Description: "half the work", Amount: 400},
			{Title: "second", Description: "the rest", Amount: 500},
		},
	})
	if !errors.Is(err, domain.ErrMilestoneSumMismatch) {
		t.Fatalf("expected sum mismatch, got %v", err)
	}

	detail := f.createEscrow(t, client, freelancer, 400, 600)
	if detail.Escrow.Status != domain.EscrowStatusDraft {
		t.Fatalf("new escrow status = %s, want draft", detail.Escrow.Status)
	}
	if len(detail.Milestones) != 2 {
		t.Fatalf("milestone count = %d, want 2", len(detail.Milestones))
	}
	for i, m := range detail.Milestones {
		if m.OrderIndex != i {
			t.Fatalf("milestone %d order_index = %d, want %d", i, m.OrderIndex, i)
		}
	}
}

func TestCreateEscrowRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	actor := actorFor(client)
	actor.IdempotencyKey = ""

	_, err := f.service.CreateEscrow(context.Background(), actor, CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: uuid.New(),
		CurrencyID:   "USD",
		TotalAmount:  100,
		Milestones:   []MilestonePlanInput{{Title: "one", Description: "all", Amount: 100}},
	})
	if !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected idempotency required, got %v", err)
	}
}

func TestCreateEscrowIdempotentReplay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	actor := actorFor(client)
	input := CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: freelancer.UserID,
		CurrencyID:   "USD",
		TotalAmount:  500,
		Milestones:   []MilestonePlanInput{{Title: "one", Description: "all", Amount: 500}},
	}

	first, err := f.service.CreateEscrow(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	replay, err := f.service.CreateEscrow(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("replayed create: %v", err)
	}
	if replay.Escrow.EscrowID != first.Escrow.EscrowID {
		t.Fatalf("replay returned a different escrow: %s vs %s", replay.Escrow.EscrowID, first.Escrow.EscrowID)
	}

	changed := input
	changed.TotalAmount = 600
	changed.Milestones = []MilestonePlanInput{{Title: "one", Description: "all", Amount: 600}}
	if _, err := f.service.CreateEscrow(context.Background(), actor, changed); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict for reused key, got %v", err)
	}
}

func TestCreateEscrowRetryAfterValidationFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	actor := actorFor(client)
	bad := CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: freelancer.UserID,
		CurrencyID:   "USD",
		TotalAmount:  1000,
		Milestones:   []MilestonePlanInput{{Title: "only", Description: "short by half", Amount: 500}},
	}
	if _, err := f.service.CreateEscrow(context.Background(), actor, bad); !errors.Is(err, domain.ErrMilestoneSumMismatch) {
		t.Fatalf("expected sum mismatch, got %v", err)
	}

	// An identical retry surfaces the same validation error instead of an
	// idempotency conflict, since a rejected request never claims the key.
	if _, err := f.service.CreateEscrow(context.Background(), actor, bad); !errors.Is(err, domain.ErrMilestoneSumMismatch) {
		t.Fatalf("retry of rejected request should repeat the validation error, got %v", err)
	}

	fixed := bad
	fixed.Milestones = []MilestonePlanInput{{Title: "only", Description: "the whole plan", Amount: 1000}}
	if _, err := f.service.CreateEscrow(context.Background(), actor, fixed); err != nil {
		t.Fatalf("corrected payload under the same key should succeed, got %v", err)
	}
}

func TestCreateEscrowRetryAfterIncompleteAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	actor := actorFor(client)
	input := CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: freelancer.UserID,
		CurrencyID:   "USD",
		TotalAmount:  500,
		Milestones:   []MilestonePlanInput{{Title: "one", Description: "all", Amount: 500}},
	}

	// A key reserved by an attempt that died before completing its record.
	if err := f.repos.Idempotency.Reserve(context.Background(), actor.IdempotencyKey, hashRequest(input), f.service.nowFn().Add(time.Hour)); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	detail, err := f.service.CreateEscrow(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("identical retry of an incomplete attempt should run, got %v", err)
	}
	if detail.Escrow.Status != domain.EscrowStatusDraft {
		t.Fatalf("retried create status = %s, want draft", detail.Escrow.Status)
	}

	changed := input
	changed.TotalAmount = 600
	changed.Milestones = []MilestonePlanInput{{Title: "one", Description: "all", Amount: 600}}
	if _, err := f.service.CreateEscrow(context.Background(), actor, changed); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("different payload on a reserved key should conflict, got %v", err)
	}
}

func TestActivateRechecksMilestoneSum(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	detail := f.createEscrow(t, client, freelancer, 400, 600)

	// An extra milestone breaks the sum until the totals line up again.
	if _, err := f.service.AddMilestone(context.Background(), actorFor(client), detail.Escrow.EscrowID, MilestonePlanInput{
		Title:       "extra",
		Description: "scope creep",
		Amount:      100,
	}); err != nil {
		t.Fatalf("add milestone: %v", err)
	}
	if _, err := f.service.ActivateEscrow(context.Background(), actorFor(client), detail.Escrow.EscrowID); !errors.Is(err, domain.ErrMilestoneSumMismatch) {
		t.Fatalf("expected sum mismatch on activation, got %v", err)
	}
}

func TestReleaseFlowCompletesEscrow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	detail := f.activeEscrow(t, client, freelancer, 400, 600)
	escrowID := detail.Escrow.EscrowID

	for _, m := range detail.Milestones {
		if _, err := f.service.CompleteMilestone(context.Background(), actorFor(freelancer), escrowID, m.MilestoneID, nil); err != nil {
			t.Fatalf("complete milestone: %v", err)
		}
		milestoneID := m.MilestoneID
		if _, err := f.service.ReleaseFunds(context.Background(), actorFor(client), ReleaseFundsInput{
			EscrowID:    escrowID,
			MilestoneID: &milestoneID,
		}); err != nil {
			t.Fatalf("release funds: %v", err)
		}
	}

	final, err := f.service.GetEscrowInternal(context.Background(), escrowID)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if final.Escrow.Status != domain.EscrowStatusCompleted {
		t.Fatalf("escrow status = %s, want completed", final.Escrow.Status)
	}
	if final.Escrow.ReleasedAmount != 1000 {
		t.Fatalf("released amount = %v, want 1000", final.Escrow.ReleasedAmount)
	}
	if final.ProgressPercentage != 100 {
		t.Fatalf("progress = %v, want 100", final.ProgressPercentage)
	}
}

func TestReleaseRequiresReleasableMilestone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	detail := f.activeEscrow(t, client, freelancer, 1000)
	milestoneID := detail.Milestones[0].MilestoneID

	_, err := f.service.ReleaseFunds(context.Background(), actorFor(client), ReleaseFundsInput{
		EscrowID:    detail.Escrow.EscrowID,
		MilestoneID: &milestoneID,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pending milestone should not release, got %v", err)
	}
}

func TestForceReleaseIsAdminOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	detail := f.activeEscrow(t, client, freelancer, 400, 600)

	_, err := f.service.ReleaseFunds(context.Background(), actorFor(client), ReleaseFundsInput{
		EscrowID:     detail.Escrow.EscrowID,
		ForceRelease: true,
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("client force release should be denied, got %v", err)
	}

	escrow, err := f.service.ReleaseFunds(context.Background(), actorFor(admin), ReleaseFundsInput{
		EscrowID:     detail.Escrow.EscrowID,
		ForceRelease: true,
	})
	if err != nil {
		t.Fatalf("admin force release: %v", err)
	}
	if escrow.Status != domain.EscrowStatusCompleted || escrow.ReleasedAmount != 1000 {
		t.Fatalf("force release should settle everything, got status=%s released=%v", escrow.Status, escrow.ReleasedAmount)
	}
}

func TestDisputeFreezesAndResolves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	detail := f.activeEscrow(t, client, freelancer, 1000)
	escrowID := detail.Escrow.EscrowID

	escrow, err := f.service.RaiseDispute(context.Background(), actorFor(freelancer), RaiseDisputeInput{
		EscrowID: escrowID,
		Reason:   "deliverable rejected without explanation",
	})
	if err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	if escrow.Status != domain.EscrowStatusDisputeRaised || escrow.DisputedAmount != 1000 {
		t.Fatalf("dispute state wrong: status=%s disputed=%v", escrow.Status, escrow.DisputedAmount)
	}

	milestoneID := detail.Milestones[0].MilestoneID
	if _, err := f.service.ReleaseFunds(context.Background(), actorFor(client), ReleaseFundsInput{
		EscrowID:    escrowID,
		MilestoneID: &milestoneID,
	}); !errors.Is(err, domain.ErrEscrowDisputed) {
		t.Fatalf("release during dispute should fail, got %v", err)
	}

	if _, err := f.service.ResolveDispute(context.Background(), actorFor(client), ResolveDisputeInput{
		EscrowID: escrowID,
		Outcome:  DisputeOutcomeRelease,
	}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("non-admin resolve should be denied, got %v", err)
	}

	escrow, err = f.service.ResolveDispute(context.Background(), actorFor(admin), ResolveDisputeInput{
		EscrowID: escrowID,
		Outcome:  DisputeOutcomeRelease,
	})
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if escrow.Status != domain.EscrowStatusCompleted || escrow.ReleasedAmount != 1000 || escrow.DisputedAmount != 0 {
		t.Fatalf("release outcome wrong: %+v", escrow)
	}
}

func TestDisputeReleaseSettlesMilestones(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	detail := f.activeEscrow(t, client, freelancer, 400, 600)
	escrowID := detail.Escrow.EscrowID

	if _, err := f.service.RaiseDispute(context.Background(), actorFor(client), RaiseDisputeInput{
		EscrowID: escrowID,
		Reason:   "work delivered but payment withheld",
	}); err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	if _, err := f.service.ResolveDispute(context.Background(), actorFor(admin), ResolveDisputeInput{
		EscrowID: escrowID,
		Outcome:  DisputeOutcomeRelease,
	}); err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}

	final, err := f.service.GetEscrowInternal(context.Background(), escrowID)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if final.Escrow.Status != domain.EscrowStatusCompleted || final.ProgressPercentage != 100 {
		t.Fatalf("release outcome: status=%s progress=%v, want completed/100", final.Escrow.Status, final.ProgressPercentage)
	}
	for _, m := range final.Milestones {
		if m.Status != domain.MilestoneStatusReleased {
			t.Fatalf("milestone %s status = %s, want released", m.Title, m.Status)
		}
	}
}

func TestDisputeRefundCancelsMilestones(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	detail := f.activeEscrow(t, client, freelancer, 1000)
	escrowID := detail.Escrow.EscrowID

	if _, err := f.service.RaiseDispute(context.Background(), actorFor(client), RaiseDisputeInput{
		EscrowID: escrowID,
		Reason:   "deliverable never arrived",
	}); err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	escrow, err := f.service.ResolveDispute(context.Background(), actorFor(admin), ResolveDisputeInput{
		EscrowID: escrowID,
		Outcome:  DisputeOutcomeRefund,
	})
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if escrow.Status != domain.EscrowStatusCancelled || escrow.ReleasedAmount != 0 {
		t.Fatalf("refund outcome: status=%s released=%v, want cancelled/0", escrow.Status, escrow.ReleasedAmount)
	}

	milestones, err := f.service.ListMilestones(context.Background(), actorFor(admin), escrowID)
	if err != nil {
		t.Fatalf("list milestones: %v", err)
	}
	for _, m := range milestones {
		if m.Status != domain.MilestoneStatusCancelled {
			t.Fatalf("milestone status = %s, want cancelled", m.Status)
		}
	}
}

func TestProcessAutomationPass(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	due := f.service.nowFn().Add(-time.Hour)
	actor := actorFor(client)
	detail, err := f.service.CreateEscrow(context.Background(), actor, CreateEscrowInput{
		ProjectID:         uuid.New(),
		ClientID:          client.UserID,
		FreelancerID:      freelancer.UserID,
		CurrencyID:        "USD",
		TotalAmount:       1000,
		IsAutomated:       true,
		AutomationEnabled: true,
		Milestones: []MilestonePlanInput{
			{Title: "timed", Description: "due-date driven", Amount: 400, MilestoneType: domain.MilestoneTypeTimeBased, DueDate: &due},
			{Title: "approved work", Description: "grace-period driven", Amount: 600},
		},
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	escrowID := detail.Escrow.EscrowID
	if _, err := f.service.ActivateEscrow(context.Background(), actorFor(client), escrowID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	result, err := f.service.ProcessAutomation(context.Background(), actorFor(client), escrowID)
	if err != nil {
		t.Fatalf("automation pass: %v", err)
	}
	if result.Evaluated != 2 || result.Completed != 1 {
		t.Fatalf("first pass: evaluated=%d completed=%d, want 2/1", result.Evaluated, result.Completed)
	}

	// The completed time_based milestone releases on the next pass.
	result, err = f.service.ProcessAutomation(context.Background(), actorFor(client), escrowID)
	if err != nil {
		t.Fatalf("second automation pass: %v", err)
	}
	if result.Released != 1 {
		t.Fatalf("second pass released=%d, want 1", result.Released)
	}

	// Approve the second milestone and let its grace period elapse.
	if _, err := f.service.ApproveMilestone(context.Background(), actorFor(client), escrowID, detail.Milestones[1].MilestoneID); err != nil {
		t.Fatalf("approve milestone: %v", err)
	}
	f.advance(25 * time.Hour)
	result, err = f.service.ProcessAutomation(context.Background(), actorFor(client), escrowID)
	if err != nil {
		t.Fatalf("third automation pass: %v", err)
	}
	if result.Released != 1 || !result.EscrowComplete {
		t.Fatalf("third pass: released=%d complete=%v, want 1/true", result.Released, result.EscrowComplete)
	}

	events, err := f.service.ListAutomationEvents(context.Background(), actorFor(client), escrowID, 0, 50)
	if err != nil {
		t.Fatalf("list automation events: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected automation audit trail entries")
	}
}

func TestProcessAutomationDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	detail := f.activeEscrow(t, client, freelancer, 1000)
	if _, err := f.service.ProcessAutomation(context.Background(), actorFor(client), detail.Escrow.EscrowID); !errors.Is(err, domain.ErrAutomationOff) {
		t.Fatalf("expected automation off, got %v", err)
	}
}

func TestProcessDueAutomationSweep(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	actor := actorFor(client)
	detail, err := f.service.CreateEscrow(context.Background(), actor, CreateEscrowInput{
		ProjectID:         uuid.New(),
		ClientID:          client.UserID,
		FreelancerID:      freelancer.UserID,
		CurrencyID:        "USD",
		TotalAmount:       100,
		IsAutomated:       true,
		AutomationEnabled: true,
		Milestones:        []MilestonePlanInput{{Title: "one", Description: "all", Amount: 100}},
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if _, err := f.service.ActivateEscrow(context.Background(), actorFor(client), detail.Escrow.EscrowID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	processed, err := f.service.ProcessDueAutomation(context.Background())
	if err != nil {
		t.Fatalf("due automation sweep: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
}

func TestEscrowAccessIsScopedToParticipants(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)
	outsider := f.seedUser(t, "other@example.com", "SecurePass123!", domain.RoleClient)

	detail := f.createEscrow(t, client, freelancer, 500)

	if _, err := f.service.GetEscrow(context.Background(), actorFor(outsider), detail.Escrow.EscrowID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("outsider read should be denied, got %v", err)
	}
	if _, err := f.service.GetEscrow(context.Background(), actorFor(freelancer), detail.Escrow.EscrowID); err != nil {
		t.Fatalf("participant read failed: %v", err)
	}
}

func TestFlushOutboxPublishesPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := f.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	f.activeEscrow(t, client, freelancer, 500)

	if err := f.service.FlushOutbox(context.Background()); err != nil {
		t.Fatalf("flush outbox: %v", err)
	}
	events := f.publisher.events()
	if len(events) == 0 {
		t.Fatalf("expected published events after flush")
	}
	found := false
	for _, e := range events {
		if e == domain.EventEscrowCreated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s among published events, got %v", domain.EventEscrowCreated, events)
	}

	pending, err := f.repos.Outbox.ListPending(context.Background(), 100)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("outbox should be drained, %d rows left", len(pending))
	}
}
