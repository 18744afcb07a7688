package http

import (
	"net/http"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.loginForSurface(w, r, domain.SurfaceMarketplace, "login")
}

// adminLogin runs the same credential flow with the admin surface, which
// rejects non-admin roles before any token is issued.
func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.loginForSurface(w, r, domain.SurfaceAdmin, "admin_login")
}

func (h *Handler) loginForSurface(w http.ResponseWriter, r *http.Request, surface, operation string) {
	var req contracts.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}

	res, err := h.service.Login(r.Context(), application.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		Surface:   surface,
		IPAddress: readIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User: contracts.UserResponse{
			UserID:   res.UserID.String(),
			Email:    res.Email,
			FullName: res.FullName,
			Role:     res.Role,
			IsActive: true,
		},
	})
}

// verify restores the session for a stored token, returning the current user.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingActorError(r.Context(), w, "verify")
		return
	}
	user, _, err := h.service.Verify(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "verify", err)
		return
	}
	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingActorError(r.Context(), w, "logout")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
