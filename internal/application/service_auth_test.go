package application

import (
	"context"
	"errors"
	"testing"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func TestLoginVerifyLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "user@example.com", "SecurePass123!", domain.RoleClient)

	res, err := f.service.Login(ctx, LoginInput{
		Email:     "User@Example.com ",
		Password:  "SecurePass123!",
		IPAddress: "127.0.0.1",
		UserAgent: "unit-test",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.UserID != user.UserID {
		t.Fatalf("unexpected login result: %+v", res)
	}

	verified, claims, err := f.service.Verify(ctx, res.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.UserID != user.UserID || claims.Surface != domain.SurfaceMarketplace {
		t.Fatalf("unexpected verify result: user=%s surface=%s", verified.UserID, claims.Surface)
	}

	if err := f.service.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, _, err := f.service.Verify(ctx, res.Token); !errors.Is(err, domain.ErrSessionRevoked) {
		t.Fatalf("expected revoked session after logout, got %v", err)
	}

	// Logging out again must not fail.
	if err := f.service.Logout(ctx, res.Token); err != nil {
		t.Fatalf("repeated logout failed: %v", err)
	}
}

func TestLoginWrongPasswordAndLockout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "user@example.com", "SecurePass123!", domain.RoleClient)

	for i := 0; i < 3; i++ {
		if _, err := f.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
	}

	// The threshold is reached: even the correct password is now rejected.
	if _, err := f.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "SecurePass123!"}); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected locked account, got %v", err)
	}
}

func TestLoginUnknownEmailHidesExistence(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.service.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestAdminSurfaceRequiresAdminRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	if _, err := f.service.Login(ctx, LoginInput{
		Email:    "client@example.com",
		Password: "SecurePass123!",
		Surface:  domain.SurfaceAdmin,
	}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("non-admin on admin surface should be denied, got %v", err)
	}

	res, err := f.service.Login(ctx, LoginInput{
		Email:    "admin@example.com",
		Password: "SecurePass123!",
		Surface:  domain.SurfaceAdmin,
	})
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	_, claims, err := f.service.Verify(ctx, res.Token)
	if err != nil {
		t.Fatalf("admin verify failed: %v", err)
	}
	if claims.Surface != domain.SurfaceAdmin {
		t.Fatalf("claims surface = %s, want admin", claims.Surface)
	}
}

func TestVerifyRejectsDowngradedAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	res, err := f.service.Login(ctx, LoginInput{
		Email:    "admin@example.com",
		Password: "SecurePass123!",
		Surface:  domain.SurfaceAdmin,
	})
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}

	admin.Role = domain.RoleClient
	if err := f.repos.Users.Update(ctx, admin); err != nil {
		t.Fatalf("downgrade role: %v", err)
	}

	if _, _, err := f.service.Verify(ctx, res.Token); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("downgraded admin token should be rejected, got %v", err)
	}
}

func TestVerifyRejectsDisabledAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "user@example.com", "SecurePass123!", domain.RoleClient)

	res, err := f.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	user.IsActive = false
	if err := f.repos.Users.Update(ctx, user); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	if _, _, err := f.service.Verify(ctx, res.Token); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("disabled account should be rejected, got %v", err)
	}
	if _, err := f.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "SecurePass123!"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("disabled account login should fail, got %v", err)
	}
}
