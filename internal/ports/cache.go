package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRevocationStore caches revoked session ids so token validation does
// not need a database round-trip per request.
type SessionRevocationStore interface {
	Revoke(ctx context.Context, sessionID uuid.UUID, until time.Time) error
	IsRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore tracks failed login counts for brute-force mitigation.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}
