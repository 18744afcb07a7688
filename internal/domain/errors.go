package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied is returned when an authenticated user lacks the role
	// required by the surface, e.g. a non-admin logging into the admin dashboard.
	ErrAccessDenied        = errors.New("access denied")
	ErrAccountLocked       = errors.New("account locked")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrSessionExpired      = errors.New("session expired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")

	// ErrMilestoneSumMismatch enforces the core escrow invariant:
	// milestone amounts must sum to the escrow total within a cent.
	ErrMilestoneSumMismatch = errors.New("milestone amounts do not sum to escrow total")
	// ErrInvalidTransition guards the escrow state machine against
	// out-of-order lifecycle commands.
	ErrInvalidTransition = errors.New("invalid escrow state transition")
	ErrEscrowClosed      = errors.New("escrow already completed or cancelled")
	ErrEscrowDisputed    = errors.New("escrow is under dispute")
	ErrMilestoneFloor    = errors.New("escrow requires at least one milestone")
	ErrAutomationOff     = errors.New("automation disabled for escrow")
)
