package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

// ListAdmins returns users holding an admin role, for the admin dashboard's
// team view.
func (s *Service) ListAdmins(ctx context.Context, actor Actor, skip, limit int) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	return s.users.ListByRoles(ctx, []string{domain.RoleAdmin, domain.RoleSuperAdmin}, skip, limit)
}

// ToggleUserStatus flips a user's active flag. Existing sessions are not
// revoked eagerly; Verify rejects disabled accounts on the next request.
func (s *Service) ToggleUserStatus(ctx context.Context, actor Actor, userID uuid.UUID) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, domain.ErrAccessDenied
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return domain.User{}, domain.ErrAccessDenied
	}
	now := s.nowFn()
	user.IsActive = !user.IsActive
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.enqueueAdminUserEvent(ctx, actor, user, "status_toggled")
	return user, nil
}

// ChangeUserRole assigns a new role. Granting or revoking super_admin is
// restricted to super_admin callers.
func (s *Service) ChangeUserRole(ctx context.Context, actor Actor, userID uuid.UUID, rawRole string) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, domain.ErrAccessDenied
	}
	role := domain.NormalizeRole(rawRole)
	if role == "" {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, rawRole)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	touchesSuperAdmin := role == domain.RoleSuperAdmin || user.Role == domain.RoleSuperAdmin
	if touchesSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return domain.User{}, domain.ErrAccessDenied
	}
	now := s.nowFn()
	user.Role = role
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.enqueueAdminUserEvent(ctx, actor, user, "role_changed")
	return user, nil
}

// DeleteUser soft-deletes the account. The row survives for audit trails and
// escrow history; logins and token verification fail afterwards.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if !actor.IsAdmin() {
		return domain.ErrAccessDenied
	}
	if actor.UserID == userID {
		return fmt.Errorf("%w: cannot delete own account", domain.ErrInvalidInput)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return domain.ErrAccessDenied
	}
	now := s.nowFn()
	if err := s.users.SoftDelete(ctx, userID, now); err != nil {
		return err
	}
	s.enqueueAdminUserEvent(ctx, actor, user, "deleted")
	return nil
}

// ResetPassword replaces the user's password with a generated temporary one
// and returns it in plaintext exactly once. The user is expected to change it
// on next login.
func (s *Service) ResetPassword(ctx context.Context, actor Actor, userID uuid.UUID) (string, error) {
	if !actor.IsAdmin() {
		return "", domain.ErrAccessDenied
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return "", domain.ErrAccessDenied
	}
	tempPassword, err := generateTempPassword()
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return "", err
	}
	now := s.nowFn()
	user.PasswordHash = hash
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	s.enqueueAdminUserEvent(ctx, actor, user, "password_reset")
	return tempPassword, nil
}

func (s *Service) enqueueAdminUserEvent(ctx context.Context, actor Actor, user domain.User, change string) {
	s.enqueueOutbox(ctx, domain.EventAdminUserChanged, user.UserID.String(), map[string]any{
		"user_id":    user.UserID.String(),
		"changed_by": actor.UserID.String(),
		"change":     change,
		"role":       user.Role,
		"is_active":  user.IsActive,
		"changed_at": s.nowFn().Format(time.RFC3339),
	})
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
