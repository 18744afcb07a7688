package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

type Config struct {
	ServiceName          string
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	IdempotencyTTL       time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	OutboxFlushBatchSize int
	AutomationBatchSize  int
}

// Actor identifies the authenticated caller of a use-case, together with the
// per-request correlation data the middleware extracted.
type Actor struct {
	UserID         uuid.UUID
	Role           string
	Surface        string
	RequestID      string
	IdempotencyKey string
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin" || a.Role == "super_admin"
}

type MilestonePlanInput struct {
	Title              string
	Description        string
	Amount             float64
	MilestoneType      string
	AutoReleaseEnabled *bool
	ApprovalRequired   *bool
	GracePeriodHours   *int
	AcceptanceCriteria string
	DueDate            *time.Time
}

type CreateEscrowInput struct {
	ProjectID             uuid.UUID
	ClientID              uuid.UUID
	FreelancerID          uuid.UUID
	CurrencyID            string
	TotalAmount           float64
	IsAutomated           bool
	AutomationEnabled     bool
	AutoReleaseDelayHours int
	QualityThreshold      float64
	Milestones            []MilestonePlanInput
}

type ReleaseFundsInput struct {
	EscrowID     uuid.UUID
	MilestoneID  *uuid.UUID
	ReleaseNotes string
	ForceRelease bool
}

type RaiseDisputeInput struct {
	EscrowID uuid.UUID
	Reason   string
}

type ResolveDisputeInput struct {
	EscrowID        uuid.UUID
	Outcome         string
	ResolutionNotes string
}

const (
	DisputeOutcomeRelease = "release"
	DisputeOutcomeRefund  = "refund"
	DisputeOutcomeResume  = "resume"
)

type LoginInput struct {
	Email     string
	Password  string
	Surface   string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      string
}

type ProcessAutomationResult struct {
	EscrowID       uuid.UUID
	Evaluated      int
	Completed      int
	Released       int
	EscrowComplete bool
}

type Service struct {
	cfg Config

	escrows     ports.EscrowRepository
	milestones  ports.MilestoneRepository
	automation  ports.AutomationEventRepository
	users       ports.UserRepository
	sessions    ports.SessionRepository
	idempotency ports.IdempotencyRepository
	outbox      ports.OutboxRepository

	revocations ports.SessionRevocationStore
	lockouts    ports.LockoutStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	publisher   ports.EventPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Escrows     ports.EscrowRepository
	Milestones  ports.MilestoneRepository
	Automation  ports.AutomationEventRepository
	Users       ports.UserRepository
	Sessions    ports.SessionRepository
	Idempotency ports.IdempotencyRepository
	Outbox      ports.OutboxRepository

	Revocations ports.SessionRevocationStore
	Lockouts    ports.LockoutStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
	Publisher   ports.EventPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "smart-escrow-service"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.FailedLoginThreshold <= 0 {
		cfg.FailedLoginThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.AutomationBatchSize <= 0 {
		cfg.AutomationBatchSize = 50
	}
	return &Service{
		cfg:         cfg,
		escrows:     deps.Escrows,
		milestones:  deps.Milestones,
		automation:  deps.Automation,
		users:       deps.Users,
		sessions:    deps.Sessions,
		idempotency: deps.Idempotency,
		outbox:      deps.Outbox,
		revocations: deps.Revocations,
		lockouts:    deps.Lockouts,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		publisher:   deps.Publisher,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
