package http

import (
	"net/http"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
)

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "list_admins")
		return
	}
	skip := parseIntDefault(r.URL.Query().Get("skip"), 0)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)

	admins, err := h.service.ListAdmins(r.Context(), actor, skip, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_admins", err)
		return
	}
	out := make([]contracts.UserResponse, 0, len(admins))
	for _, u := range admins {
		out = append(out, toUserResponse(u))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) toggleUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "toggle_user_status")
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "toggle_user_status", err)
		return
	}
	user, err := h.service.ToggleUserStatus(r.Context(), actor, userID)
	if err != nil {
		writeMappedError(r.Context(), w, "toggle_user_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) changeUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "change_user_role")
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "change_user_role", err)
		return
	}
	var req contracts.ChangeRoleRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "change_user_role", err)
		return
	}
	user, err := h.service.ChangeUserRole(r.Context(), actor, userID, req.Role)
	if err != nil {
		writeMappedError(r.Context(), w, "change_user_role", err)
		return
	}
	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "delete_user")
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_user", err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), actor, userID); err != nil {
		writeMappedError(r.Context(), w, "delete_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "reset_password")
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "reset_password", err)
		return
	}
	tempPassword, err := h.service.ResetPassword(r.Context(), actor, userID)
	if err != nil {
		writeMappedError(r.Context(), w, "reset_password", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.ResetPasswordResponse{
		UserID:            userID.String(),
		TemporaryPassword: tempPassword,
	})
}
