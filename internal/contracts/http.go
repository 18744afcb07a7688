package contracts

import "time"

type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

// MilestonePlanItem is one milestone of the creation plan. order_index is
// assigned server-side from array position; any client value is ignored.
type MilestonePlanItem struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Amount             float64    `json:"amount"`
	MilestoneType      string     `json:"milestone_type,omitempty"`
	AutoReleaseEnabled *bool      `json:"auto_release_enabled,omitempty"`
	ApprovalRequired   *bool      `json:"approval_required,omitempty"`
	GracePeriodHours   *int       `json:"grace_period_hours,omitempty"`
	AcceptanceCriteria string     `json:"acceptance_criteria,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
}

type CreateEscrowRequest struct {
	ProjectID             string              `json:"project_id"`
	ClientID              string              `json:"client_id"`
	FreelancerID          string              `json:"freelancer_id"`
	CurrencyID            string              `json:"currency_id"`
	TotalAmount           float64             `json:"total_amount"`
	IsAutomated           bool                `json:"is_automated"`
	AutomationEnabled     bool                `json:"automation_enabled"`
	AutoReleaseDelayHours int                 `json:"auto_release_delay_hours,omitempty"`
	QualityThreshold      float64             `json:"quality_threshold,omitempty"`
	Milestones            []MilestonePlanItem `json:"milestones"`
}

type AddMilestoneRequest struct {
	MilestonePlanItem
	OrderIndex *int `json:"order_index,omitempty"`
}

type ReleaseFundsRequest struct {
	MilestoneID  string `json:"milestone_id,omitempty"`
	ReleaseNotes string `json:"release_notes,omitempty"`
	ForceRelease bool   `json:"force_release"`
}

type RaiseDisputeRequest struct {
	Reason string `json:"reason"`
}

type ResolveDisputeRequest struct {
	Outcome         string `json:"outcome"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

type MilestoneResponse struct {
	MilestoneID        string     `json:"milestone_id"`
	EscrowID           string     `json:"escrow_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Amount             float64    `json:"amount"`
	OrderIndex         int        `json:"order_index"`
	Status             string     `json:"status"`
	MilestoneType      string     `json:"milestone_type"`
	AutoReleaseEnabled bool       `json:"auto_release_enabled"`
	ApprovalRequired   bool       `json:"approval_required"`
	GracePeriodHours   int        `json:"grace_period_hours"`
	QualityScore       *float64   `json:"quality_score,omitempty"`
	AcceptanceCriteria string     `json:"acceptance_criteria,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ReleasedAt         *time.Time `json:"released_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type EscrowResponse struct {
	EscrowID              string     `json:"escrow_id"`
	ProjectID             string     `json:"project_id"`
	ClientID              string     `json:"client_id"`
	FreelancerID          string     `json:"freelancer_id"`
	CurrencyID            string     `json:"currency_id"`
	TotalAmount           float64    `json:"total_amount"`
	ReleasedAmount        float64    `json:"released_amount"`
	DisputedAmount        float64    `json:"disputed_amount"`
	RemainingAmount       float64    `json:"remaining_amount"`
	Status                string     `json:"status"`
	IsAutomated           bool       `json:"is_automated"`
	AutomationEnabled     bool       `json:"automation_enabled"`
	AutoReleaseDelayHours int        `json:"auto_release_delay_hours"`
	QualityThreshold      float64    `json:"quality_threshold"`
	DisputeReason         string     `json:"dispute_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	ActivatedAt           *time.Time `json:"activated_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type EscrowDetailResponse struct {
	Escrow             EscrowResponse      `json:"escrow"`
	Milestones         []MilestoneResponse `json:"milestones"`
	ProgressPercentage float64             `json:"progress_percentage"`
}

type AutomationEventResponse struct {
	EventID     string    `json:"event_id"`
	EscrowID    string    `json:"escrow_id"`
	MilestoneID string    `json:"milestone_id,omitempty"`
	EventType   string    `json:"event_type"`
	EventName   string    `json:"event_name"`
	Description string    `json:"description"`
	Success     bool      `json:"success"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProcessAutomationResponse struct {
	EscrowID       string `json:"escrow_id"`
	Evaluated      int    `json:"evaluated"`
	Completed      int    `json:"completed"`
	Released       int    `json:"released"`
	EscrowComplete bool   `json:"escrow_complete"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type ResetPasswordResponse struct {
	UserID            string `json:"user_id"`
	TemporaryPassword string `json:"temporary_password"`
}
