package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/adapters/memory"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/adapters/security"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

// capturePublisher records published events so outbox behavior can be
// asserted without a broker.
type capturePublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *capturePublisher) Publish(_ context.Context, eventType, _ string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, eventType)
	return nil
}

func (p *capturePublisher) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.published))
	copy(out, p.published)
	return out
}

type fixture struct {
	service   *Service
	repos     *memory.Repositories
	publisher *capturePublisher

	mu  sync.Mutex
	now time.Time
}

// newFixture wires the service against in-memory adapters with a controllable
// clock. The clock starts at wall time so signed tokens stay valid.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := memory.NewRepositories()
	signer, err := security.NewEphemeralJWTSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	f := &fixture{
		repos:     repos,
		publisher: &capturePublisher{},
		now:       time.Now().UTC(),
	}
	svc := NewService(Dependencies{
		Config: Config{
			FailedLoginThreshold: 3,
			LockoutDuration:      15 * time.Minute,
		},
		Escrows:     repos.Escrows,
		Milestones:  repos.Milestones,
		Automation:  repos.Automation,
		Users:       repos.Users,
		Sessions:    repos.Sessions,
		Idempotency: repos.Idempotency,
		Outbox:      repos.Outbox,
		Revocations: memory.NewSessionRevocationStore(),
		Lockouts:    memory.NewLockoutStore(),
		Hasher:      security.NewBcryptHasher(4),
		TokenSigner: signer,
		Publisher:   f.publisher,
	})
	svc.nowFn = func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	f.service = svc
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) seedUser(t *testing.T, email, password, role string) domain.User {
	t.Helper()
	hash, err := f.service.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := f.service.nowFn()
	user := domain.User{
		UserID:       uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.repos.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// actorFor builds a command actor with a fresh idempotency key, since each
// command invocation is a distinct request.
func actorFor(user domain.User) Actor {
	return Actor{
		UserID:         user.UserID,
		Role:           user.Role,
		Surface:        domain.SurfaceMarketplace,
		RequestID:      uuid.NewString(),
		IdempotencyKey: uuid.NewString(),
	}
}

func (f *fixture) createEscrow(t *testing.T, client, freelancer domain.User, amounts ...float64) EscrowDetail {
	t.Helper()
	total := 0.0
	milestones := make([]MilestonePlanInput, 0, len(amounts))
	for _, a := range amounts {
		total += a
		milestones = append(milestones, MilestonePlanInput{
			Title:       "milestone",
			Description: "deliverable work",
			Amount:      a,
		})
	}
	detail, err := f.service.CreateEscrow(context.Background(), actorFor(client), CreateEscrowInput{
		ProjectID:    uuid.New(),
		ClientID:     client.UserID,
		FreelancerID: freelancer.UserID,
		CurrencyID:   "USD",
		TotalAmount:  total,
		Milestones:   milestones,
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	return detail
}

func (f *fixture) activeEscrow(t *testing.T, client, freelancer domain.User, amounts ...float64) EscrowDetail {
	t.Helper()
	detail := f.createEscrow(t, client, freelancer, amounts...)
	escrow, err := f.service.ActivateEscrow(context.Background(), actorFor(client), detail.Escrow.EscrowID)
	if err != nil {
		t.Fatalf("activate escrow: %v", err)
	}
	detail.Escrow = escrow
	return detail
}
