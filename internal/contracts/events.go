package contracts

import "time"

// EventEnvelope is the canonical wire shape for outbox-published events.
type EventEnvelope struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	PartitionKey string    `json:"partition_key"`
	Data         any       `json:"data"`
}

type EscrowCreatedData struct {
	EscrowID       string  `json:"escrow_id"`
	ProjectID      string  `json:"project_id"`
	ClientID       string  `json:"client_id"`
	FreelancerID   string  `json:"freelancer_id"`
	TotalAmount    float64 `json:"total_amount"`
	MilestoneCount int     `json:"milestone_count"`
}

type MilestoneReleasedData struct {
	EscrowID       string  `json:"escrow_id"`
	MilestoneID    string  `json:"milestone_id"`
	Amount         float64 `json:"amount"`
	ReleasedAmount float64 `json:"released_amount"`
	ReleaseNotes   string  `json:"release_notes,omitempty"`
	Forced         bool    `json:"forced"`
}

type DisputeData struct {
	EscrowID       string  `json:"escrow_id"`
	RaisedBy       string  `json:"raised_by,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Outcome        string  `json:"outcome,omitempty"`
	DisputedAmount float64 `json:"disputed_amount"`
}
