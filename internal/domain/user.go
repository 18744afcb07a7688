package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is the shared identity aggregate for both the marketplace and the admin
// dashboard. One model and one session flow serve both surfaces; the admin
// surface only differs in its role gate.
type User struct {
	UserID       uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session models a bearer-token login session.
// Persisted separately so individual sessions can be revoked on logout.
type Session struct {
	SessionID      uuid.UUID
	UserID         uuid.UUID
	Surface        string
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
}

const (
	SurfaceMarketplace = "marketplace"
	SurfaceAdmin       = "admin"
)

// IsAdminRole reports whether the role may access the admin surface.
func IsAdminRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// NormalizeRole maps free-form input to a canonical role name, returning empty
// string for unknown values.
func NormalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case RoleClient:
		return RoleClient
	case RoleFreelancer:
		return RoleFreelancer
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return ""
	}
}
