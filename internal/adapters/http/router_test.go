package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/adapters/memory"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/adapters/security"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

type testEnv struct {
	server *httptest.Server
	repos  *memory.Repositories
	hasher *security.BcryptHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := memory.NewRepositories()
	signer, err := security.NewEphemeralJWTSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}
	hasher := security.NewBcryptHasher(4)

	svc := application.NewService(application.Dependencies{
		Escrows:     repos.Escrows,
		Milestones:  repos.Milestones,
		Automation:  repos.Automation,
		Users:       repos.Users,
		Sessions:    repos.Sessions,
		Idempotency: repos.Idempotency,
		Outbox:      repos.Outbox,
		Revocations: memory.NewSessionRevocationStore(),
		Lockouts:    memory.NewLockoutStore(),
		Hasher:      hasher,
		TokenSigner: signer,
	})

	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	t.Cleanup(server.Close)
	return &testEnv{server: server, repos: repos, hasher: hasher}
}

func (e *testEnv) seedUser(t *testing.T, email, password, role string) domain.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		UserID:       uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.repos.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, payload
}

func (e *testEnv) login(t *testing.T, path, email, password string) string {
	t.Helper()
	resp, payload := e.request(t, http.MethodPost, path, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", resp.StatusCode, payload)
	}
	data := payload["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", payload)
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	resp, payload := e.request(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	if payload["status"] != "success" {
		t.Fatalf("healthz envelope = %v", payload)
	}
}

func TestEscrowEndpointsRequireAuth(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	resp, payload := e.request(t, http.MethodGet, "/v1/smart-escrow/", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	errPayload := payload["error"].(map[string]any)
	if errPayload["code"] != "UNAUTHORIZED" {
		t.Fatalf("error code = %v, want UNAUTHORIZED", errPayload["code"])
	}
}

func TestCreateAndFetchEscrow(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	client := e.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := e.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	token := e.login(t, "/auth/v1/login", "client@example.com", "SecurePass123!")

	createBody := map[string]any{
		"project_id":    uuid.NewString(),
		"client_id":     client.UserID.String(),
		"freelancer_id": freelancer.UserID.String(),
		"currency_id":   "USD",
		"total_amount":  1000.0,
		"milestones": []map[string]any{
			{"title": "first", "description": "half the work", "amount": 400.0},
			{"title": "second", "description": "the rest", "amount": 600.0},
		},
	}
	resp, payload := e.request(t, http.MethodPost, "/v1/smart-escrow/", token, createBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, payload)
	}
	data := payload["data"].(map[string]any)
	escrow := data["escrow"].(map[string]any)
	escrowID, _ := escrow["escrow_id"].(string)
	if escrowID == "" || escrow["status"] != domain.EscrowStatusDraft {
		t.Fatalf("unexpected create payload: %v", data)
	}
	milestones := data["milestones"].([]any)
	if len(milestones) != 2 {
		t.Fatalf("milestone count = %d, want 2", len(milestones))
	}
	for i, raw := range milestones {
		m := raw.(map[string]any)
		if idx, _ := m["order_index"].(float64); int(idx) != i {
			t.Fatalf("milestone %d order_index = %v, want %d", i, m["order_index"], i)
		}
	}

	resp, payload = e.request(t, http.MethodGet, fmt.Sprintf("/v1/smart-escrow/%s/", escrowID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, body = %v", resp.StatusCode, payload)
	}

	resp, payload = e.request(t, http.MethodPost, fmt.Sprintf("/v1/smart-escrow/%s/activate", escrowID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d, body = %v", resp.StatusCode, payload)
	}
	activated := payload["data"].(map[string]any)
	if activated["status"] != domain.EscrowStatusActive {
		t.Fatalf("activated status = %v, want active", activated["status"])
	}
}

func TestGetUnknownEscrowMapsTo404(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	token := e.login(t, "/auth/v1/login", "client@example.com", "SecurePass123!")

	resp, payload := e.request(t, http.MethodGet, fmt.Sprintf("/v1/smart-escrow/%s/", uuid.NewString()), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %v", resp.StatusCode, payload)
	}
	errPayload := payload["error"].(map[string]any)
	if errPayload["code"] != "NOT_FOUND" {
		t.Fatalf("error code = %v, want NOT_FOUND", errPayload["code"])
	}
}

func TestCreateEscrowSumMismatchMapsTo422(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	client := e.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)
	freelancer := e.seedUser(t, "dev@example.com", "SecurePass123!", domain.RoleFreelancer)

	token := e.login(t, "/auth/v1/login", "client@example.com", "SecurePass123!")

	resp, payload := e.request(t, http.MethodPost, "/v1/smart-escrow/", token, map[string]any{
		"project_id":    uuid.NewString(),
		"client_id":     client.UserID.String(),
		"freelancer_id": freelancer.UserID.String(),
		"currency_id":   "USD",
		"total_amount":  1000.0,
		"milestones": []map[string]any{
			{"title": "only", "description": "short by half", "amount": 500.0},
		},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %v", resp.StatusCode, payload)
	}
	errPayload := payload["error"].(map[string]any)
	if errPayload["code"] != "MILESTONE_SUM_MISMATCH" {
		t.Fatalf("error code = %v", errPayload["code"])
	}
	if rid, _ := errPayload["request_id"].(string); rid == "" {
		t.Fatalf("expected request_id in error payload")
	}
}

func TestAdminRoutesEnforceSurface(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.seedUser(t, "admin@example.com", "SecurePass123!", domain.RoleAdmin)

	// A marketplace-surface token, even for an admin account, cannot reach
	// the admin user-management routes.
	marketToken := e.login(t, "/auth/v1/login", "admin@example.com", "SecurePass123!")
	resp, payload := e.request(t, http.MethodGet, "/admin/v1/users/admins", marketToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("marketplace token on admin route: status = %d, body = %v", resp.StatusCode, payload)
	}

	adminToken := e.login(t, "/admin/v1/auth/login", "admin@example.com", "SecurePass123!")
	resp, payload = e.request(t, http.MethodGet, "/admin/v1/users/admins", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin token on admin route: status = %d, body = %v", resp.StatusCode, payload)
	}
}

func TestAdminLoginRejectsNonAdmins(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.seedUser(t, "client@example.com", "SecurePass123!", domain.RoleClient)

	resp, payload := e.request(t, http.MethodPost, "/admin/v1/auth/login", "", map[string]string{
		"email":    "client@example.com",
		"password": "SecurePass123!",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %v", resp.StatusCode, payload)
	}
}
