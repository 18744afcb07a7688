package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

// Login validates credentials and issues a bearer token bound to a persisted
// session. Both surfaces share this flow; the admin surface adds a role gate
// so non-admin accounts never receive an admin-scoped token.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return LoginResult{}, err
	}
	surface := input.Surface
	if surface == "" {
		surface = domain.SurfaceMarketplace
	}

	lockKey := "login:" + email
	if s.lockouts != nil {
		lockState, lockErr := s.lockouts.Get(ctx, lockKey)
		if lockErr == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
			slog.Default().WarnContext(ctx, "account lockout active",
				"service", s.cfg.ServiceName,
				"module", "application",
				"layer", "application",
				"operation", "login",
				"outcome", "blocked",
				"email", email,
				"locked_until", lockState.LockedUntil,
			)
			return LoginResult{}, domain.ErrAccountLocked
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !user.IsActive || user.DeletedAt != nil {
		return LoginResult{}, domain.ErrAccountDisabled
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if s.lockouts != nil {
			_, _ = s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
		}
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if s.lockouts != nil {
		_ = s.lockouts.Clear(ctx, lockKey)
	}

	// The admin dashboard is reachable only by admin roles. Failing before
	// session creation means no token ever exists for the rejected attempt.
	if surface == domain.SurfaceAdmin && !domain.IsAdminRole(user.Role) {
		return LoginResult{}, domain.ErrAccessDenied
	}

	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		UserID:         user.UserID,
		Surface:        surface,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return LoginResult{}, err
	}

	expiresAt := now.Add(s.cfg.TokenTTL)
	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		Surface:   surface,
		SessionID: session.SessionID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return LoginResult{}, err
	}

	s.enqueueOutbox(ctx, domain.EventUserLoggedIn, user.UserID.String(), map[string]any{
		"user_id":  user.UserID.String(),
		"surface":  surface,
		"login_at": now,
	})

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.UserID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
	}, nil
}

// Verify validates a bearer token against signature, revocation cache and the
// session row, and returns the current user. This backs both surfaces'
// session-restore endpoints.
func (s *Service) Verify(ctx context.Context, token string) (domain.User, ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return domain.User{}, ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if s.revocations != nil {
		revoked, revErr := s.revocations.IsRevoked(ctx, claims.SessionID)
		if revErr == nil && revoked {
			return domain.User{}, ports.AuthClaims{}, domain.ErrSessionRevoked
		}
	}
	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return domain.User{}, ports.AuthClaims{}, domain.ErrUnauthorized
	}
	now := s.nowFn()
	if session.RevokedAt != nil {
		return domain.User{}, ports.AuthClaims{}, domain.ErrSessionRevoked
	}
	if session.ExpiresAt.Before(now) {
		return domain.User{}, ports.AuthClaims{}, domain.ErrSessionExpired
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return domain.User{}, ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if !user.IsActive || user.DeletedAt != nil {
		return domain.User{}, ports.AuthClaims{}, domain.ErrAccountDisabled
	}
	if claims.Surface == domain.SurfaceAdmin && !domain.IsAdminRole(user.Role) {
		// Role may have been downgraded since the token was issued.
		return domain.User{}, ports.AuthClaims{}, domain.ErrAccessDenied
	}
	_ = s.sessions.TouchActivity(ctx, session.SessionID, now)
	return user, claims, nil
}

// Logout revokes the token's session. Revoking an already-revoked or unknown
// session is treated as success so client-side logout is never blocked.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return nil
	}
	now := s.nowFn()
	if err := s.sessions.Revoke(ctx, claims.SessionID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if s.revocations != nil {
		_ = s.revocations.Revoke(ctx, claims.SessionID, claims.ExpiresAt)
	}
	return nil
}
