package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

type EscrowRepository interface {
	// CreateWithMilestones persists the escrow and its full milestone plan in
	// one transaction, alongside the creation outbox event. Partial plans never
	// become visible.
	CreateWithMilestones(ctx context.Context, escrow domain.SmartEscrow, plan []domain.SmartMilestone, outboxEvent OutboxEvent) error
	GetByID(ctx context.Context, escrowID uuid.UUID) (domain.SmartEscrow, error)
	Update(ctx context.Context, escrow domain.SmartEscrow) error
	List(ctx context.Context, filter EscrowFilter) ([]domain.SmartEscrow, error)
	ListAutomated(ctx context.Context, limit int) ([]domain.SmartEscrow, error)
}

type EscrowFilter struct {
	ClientID     *uuid.UUID
	FreelancerID *uuid.UUID
	Status       string
	Skip         int
	Limit        int
}

type MilestoneRepository interface {
	Create(ctx context.Context, row domain.SmartMilestone) error
	GetByID(ctx context.Context, milestoneID uuid.UUID) (domain.SmartMilestone, error)
	Update(ctx context.Context, row domain.SmartMilestone) error
	ListByEscrow(ctx context.Context, escrowID uuid.UUID) ([]domain.SmartMilestone, error)
}

type AutomationEventRepository interface {
	Append(ctx context.Context, row domain.AutomationEvent) error
	ListByEscrow(ctx context.Context, escrowID uuid.UUID, skip, limit int) ([]domain.AutomationEvent, error)
}

type UserRepository interface {
	Create(ctx context.Context, row domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	Update(ctx context.Context, row domain.User) error
	ListByRoles(ctx context.Context, roles []string, skip, limit int) ([]domain.User, error)
	SoftDelete(ctx context.Context, userID uuid.UUID, deletedAt time.Time) error
}

type SessionCreateParams struct {
	UserID         uuid.UUID
	Surface        string
	IPAddress      string
	UserAgent      string
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	Revoke(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
	TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
	RetryCount   int
	LastError    string
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, reason string, at time.Time) error
}
