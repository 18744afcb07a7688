package domain

const (
	EventEscrowCreated     = "escrow.created"
	EventEscrowActivated   = "escrow.activated"
	EventEscrowCompleted   = "escrow.completed"
	EventEscrowCancelled   = "escrow.cancelled"
	EventMilestoneReleased = "escrow.milestone.released"
	EventDisputeRaised     = "escrow.dispute.raised"
	EventDisputeResolved   = "escrow.dispute.resolved"
	EventUserLoggedIn      = "auth.user.logged_in"
	EventAdminUserChanged  = "admin.user.changed"
)
