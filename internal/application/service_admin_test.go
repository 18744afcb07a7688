package application

import (
	"context"
	"errors"
	"testing"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func adminActor(user domain.User) Actor {
	actor := actorFor(user)
	actor.Surface = domain.SurfaceAdmin
	return actor
}

func TestListAdmins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)
	f.seedUser(t, "root@example.com", "SecurePass123!", domain.RoleSuperAdmin)
	f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)

	admins, err := f.service.ListAdmins(ctx, adminActor(admin), 0, 50)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("admin count = %d, want 2", len(admins))
	}
}

func TestToggleUserStatusGuardsSuperAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)
	root := f.seedUser(t, "root@example.com", "SecurePass123!", domain.RoleSuperAdmin)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)

	toggled, err := f.service.ToggleUserStatus(ctx, adminActor(admin), client.UserID)
	if err != nil {
		t.Fatalf("toggle status: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected user to be deactivated")
	}

	if _, err := f.service.ToggleUserStatus(ctx, adminActor(admin), root.UserID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("admin touching super_admin should be denied, got %v", err)
	}
	if _, err := f.service.ToggleUserStatus(ctx, adminActor(root), root.UserID); err != nil {
		t.Fatalf("super_admin toggle: %v", err)
	}
}

func TestChangeUserRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)
	root := f.seedUser(t, "root@example.com", "SecurePass123!", domain.RoleSuperAdmin)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)

	changed, err := f.service.ChangeUserRole(ctx, adminActor(admin), client.UserID, "Freelancer")
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if changed.Role != domain.RoleFreelancer {
		t.Fatalf("role = %s, want freelancer", changed.Role)
	}

	if _, err := f.service.ChangeUserRole(ctx, adminActor(admin), client.UserID, "super_admin"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("granting super_admin requires super_admin, got %v", err)
	}
	if _, err := f.service.ChangeUserRole(ctx, adminActor(root), client.UserID, "super_admin"); err != nil {
		t.Fatalf("super_admin grant: %v", err)
	}
	if _, err := f.service.ChangeUserRole(ctx, adminActor(admin), client.UserID, "wizard"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown role should be rejected, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)

	if err := f.service.DeleteUser(ctx, adminActor(admin), admin.UserID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("self delete should be rejected, got %v", err)
	}

	if err := f.service.DeleteUser(ctx, adminActor(admin), client.UserID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	deleted, err := f.repos.Users.GetByID(ctx, client.UserID)
	if err != nil {
		t.Fatalf("soft-deleted row should remain: %v", err)
	}
	if deleted.DeletedAt == nil || deleted.IsActive {
		t.Fatalf("expected soft-deleted inactive user, got %+v", deleted)
	}

	if _, err := f.service.Login(ctx, LoginInput{Email: "client@example.com", Password: "SecurePass123!"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("deleted account login should fail, got %v", err)
	}
}

func TestResetPasswordIssuesTemporary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)
	client := f.seedUser(t, "client@example.com", "OldPass123!", domain.RoleClient)

	temp, err := f.service.ResetPassword(ctx, adminActor(admin), client.UserID)
	if err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if temp == "" {
		t.Fatalf("expected a temporary password")
	}

	if _, err := f.service.Login(ctx, LoginInput{Email: "client@example.com", Password: "OldPass123!"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be invalid, got %v", err)
	}
	if _, err := f.service.Login(ctx, LoginInput{Email: "client@example.com", Password: temp}); err != nil {
		t.Fatalf("temporary password login failed: %v", err)
	}
}

func TestAdminOperationsDenyNonAdmins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	client := f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	other := f.seedUser(t, "other@example.com", "SecurePass123!", domain.RoleClient)

	if _, err := f.service.ListAdmins(ctx, actorFor(client), 0, 50); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("list admins by client should be denied, got %v", err)
	}
	if _, err := f.service.ToggleUserStatus(ctx, actorFor(client), other.UserID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("toggle by client should be denied, got %v", err)
	}
	if err := f.service.DeleteUser(ctx, actorFor(client), other.UserID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("delete by client should be denied, got %v", err)
	}
}
