package postgres

import (
	"time"

	"github.com/google/uuid"
)

type escrowModel struct {
	EscrowID              uuid.UUID  `gorm:"column:escrow_id;type:uuid;primaryKey"`
	ProjectID             uuid.UUID  `gorm:"column:project_id;type:uuid"`
	ClientID              uuid.UUID  `gorm:"column:client_id;type:uuid"`
	FreelancerID          uuid.UUID  `gorm:"column:freelancer_id;type:uuid"`
	CurrencyID            string     `gorm:"column:currency_id"`
	TotalAmount           float64    `gorm:"column:total_amount"`
	ReleasedAmount        float64    `gorm:"column:released_amount"`
	DisputedAmount        float64    `gorm:"column:disputed_amount"`
	Status                string     `gorm:"column:status"`
	IsAutomated           bool       `gorm:"column:is_automated"`
	AutomationEnabled     bool       `gorm:"column:automation_enabled"`
	AutoReleaseDelayHours int        `gorm:"column:auto_release_delay_hours"`
	QualityThreshold      float64    `gorm:"column:quality_threshold"`
	DisputeReason         string     `gorm:"column:dispute_reason"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
	ActivatedAt           *time.Time `gorm:"column:activated_at"`
	CompletedAt           *time.Time `gorm:"column:completed_at"`
}

func (escrowModel) TableName() string { return "smart_escrows" }

type milestoneModel struct {
	MilestoneID        uuid.UUID  `gorm:"column:milestone_id;type:uuid;primaryKey"`
	EscrowID           uuid.UUID  `gorm:"column:escrow_id;type:uuid"`
	OrderIndex         int        `gorm:"column:order_index"`
	Title              string     `gorm:"column:title"`
	Description        string     `gorm:"column:description"`
	Amount             float64    `gorm:"column:amount"`
	MilestoneType      string     `gorm:"column:milestone_type"`
	Status             string     `gorm:"column:status"`
	AutoReleaseEnabled bool       `gorm:"column:auto_release_enabled"`
	ApprovalRequired   bool       `gorm:"column:approval_required"`
	GracePeriodHours   int        `gorm:"column:grace_period_hours"`
	AcceptanceCriteria string     `gorm:"column:acceptance_criteria"`
	QualityScore       *float64   `gorm:"column:quality_score"`
	DueDate            *time.Time `gorm:"column:due_date"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	ReleasedAt         *time.Time `gorm:"column:released_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (milestoneModel) TableName() string { return "smart_milestones" }

type automationEventModel struct {
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey"`
	EscrowID    uuid.UUID  `gorm:"column:escrow_id;type:uuid"`
	MilestoneID *uuid.UUID `gorm:"column:milestone_id;type:uuid"`
	EventType   string     `gorm:"column:event_type"`
	EventName   string     `gorm:"column:event_name"`
	Description string     `gorm:"column:description"`
	Success     bool       `gorm:"column:success"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (automationEventModel) TableName() string { return "escrow_automation_events" }

type userModel struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email"`
	FullName     string     `gorm:"column:full_name"`
	PasswordHash string     `gorm:"column:password_hash"`
	Role         string     `gorm:"column:role"`
	IsActive     bool       `gorm:"column:is_active"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	SessionID      uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid"`
	Surface        string     `gorm:"column:surface"`
	IPAddress      *string    `gorm:"column:ip_address"`
	UserAgent      string     `gorm:"column:user_agent"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	LastActivityAt time.Time  `gorm:"column:last_activity_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    *string    `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "escrow_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "escrow_idempotency" }
