package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/contracts"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
)

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "create_escrow")
		return
	}
	var req contracts.CreateEscrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_escrow", err)
		return
	}
	input, err := toCreateEscrowInput(req)
	if err != nil {
		writeValidationError(r.Context(), w, "create_escrow", err)
		return
	}

	detail, err := h.service.CreateEscrow(r.Context(), actor, input)
	if err != nil {
		writeMappedError(r.Context(), w, "create_escrow", err)
		return
	}
	writeSuccess(w, http.StatusCreated, toEscrowDetailResponse(detail))
}

func (h *Handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "get_escrow")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_escrow", err)
		return
	}
	detail, err := h.service.GetEscrow(r.Context(), actor, escrowID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_escrow", err)
		return
	}
	writeSuccess(w, http.StatusOK, toEscrowDetailResponse(detail))
}

func (h *Handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "list_escrows")
		return
	}
	skip := parseIntDefault(r.URL.Query().Get("skip"), 0)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	status := r.URL.Query().Get("status")

	escrows, err := h.service.ListEscrows(r.Context(), actor, status, skip, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_escrows", err)
		return
	}
	out := make([]contracts.EscrowResponse, 0, len(escrows))
	for _, e := range escrows {
		out = append(out, toEscrowResponse(e))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) activateEscrow(w http.ResponseWriter, r *http.Request) {
	h.escrowCommand(w, r, "activate_escrow", h.service.ActivateEscrow)
}

func (h *Handler) cancelEscrow(w http.ResponseWriter, r *http.Request) {
	h.escrowCommand(w, r, "cancel_escrow", h.service.CancelEscrow)
}

func (h *Handler) releaseFunds(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "release_funds")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "release_funds", err)
		return
	}
	var req contracts.ReleaseFundsRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "release_funds", err)
		return
	}
	input := application.ReleaseFundsInput{
		EscrowID:     escrowID,
		ReleaseNotes: req.ReleaseNotes,
		ForceRelease: req.ForceRelease,
	}
	if req.MilestoneID != "" {
		id, err := uuid.Parse(req.MilestoneID)
		if err != nil {
			writeValidationError(r.Context(), w, "release_funds", fmt.Errorf("malformed milestone_id"))
			return
		}
		input.MilestoneID = &id
	}

	escrow, err := h.service.ReleaseFunds(r.Context(), actor, input)
	if err != nil {
		writeMappedError(r.Context(), w, "release_funds", err)
		return
	}
	writeSuccess(w, http.StatusOK, toEscrowResponse(escrow))
}

func (h *Handler) processAutomation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "process_automation")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "process_automation", err)
		return
	}
	result, err := h.service.ProcessAutomation(r.Context(), actor, escrowID)
	if err != nil {
		writeMappedError(r.Context(), w, "process_automation", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.ProcessAutomationResponse{
		EscrowID:       result.EscrowID.String(),
		Evaluated:      result.Evaluated,
		Completed:      result.Completed,
		Released:       result.Released,
		EscrowComplete: result.EscrowComplete,
	})
}

func (h *Handler) listAutomationEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "list_automation_events")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_automation_events", err)
		return
	}
	skip := parseIntDefault(r.URL.Query().Get("skip"), 0)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)

	events, err := h.service.ListAutomationEvents(r.Context(), actor, escrowID, skip, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_automation_events", err)
		return
	}
	out := make([]contracts.AutomationEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toAutomationEventResponse(e))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) raiseDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "raise_dispute")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "raise_dispute", err)
		return
	}
	var req contracts.RaiseDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "raise_dispute", err)
		return
	}
	escrow, err := h.service.RaiseDispute(r.Context(), actor, application.RaiseDisputeInput{
		EscrowID: escrowID,
		Reason:   req.Reason,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "raise_dispute", err)
		return
	}
	writeSuccess(w, http.StatusOK, toEscrowResponse(escrow))
}

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "resolve_dispute")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_dispute", err)
		return
	}
	var req contracts.ResolveDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "resolve_dispute", err)
		return
	}
	escrow, err := h.service.ResolveDispute(r.Context(), actor, application.ResolveDisputeInput{
		EscrowID:        escrowID,
		Outcome:         req.Outcome,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "resolve_dispute", err)
		return
	}
	writeSuccess(w, http.StatusOK, toEscrowResponse(escrow))
}

func (h *Handler) addMilestone(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "add_milestone")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "add_milestone", err)
		return
	}
	var req contracts.AddMilestoneRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "add_milestone", err)
		return
	}
	milestone, err := h.service.AddMilestone(r.Context(), actor, escrowID, toMilestonePlanInput(req.MilestonePlanItem))
	if err != nil {
		writeMappedError(r.Context(), w, "add_milestone", err)
		return
	}
	writeSuccess(w, http.StatusCreated, toMilestoneResponse(milestone))
}

func (h *Handler) listMilestones(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "list_milestones")
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_milestones", err)
		return
	}
	milestones, err := h.service.ListMilestones(r.Context(), actor, escrowID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_milestones", err)
		return
	}
	out := make([]contracts.MilestoneResponse, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, toMilestoneResponse(m))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) approveMilestone(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "approve_milestone")
		return
	}
	escrowID, milestoneID, err := escrowMilestoneParams(r)
	if err != nil {
		writeValidationError(r.Context(), w, "approve_milestone", err)
		return
	}
	milestone, err := h.service.ApproveMilestone(r.Context(), actor, escrowID, milestoneID)
	if err != nil {
		writeMappedError(r.Context(), w, "approve_milestone", err)
		return
	}
	writeSuccess(w, http.StatusOK, toMilestoneResponse(milestone))
}

func (h *Handler) completeMilestone(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, "complete_milestone")
		return
	}
	escrowID, milestoneID, err := escrowMilestoneParams(r)
	if err != nil {
		writeValidationError(r.Context(), w, "complete_milestone", err)
		return
	}
	var req struct {
		QualityScore *float64 `json:"quality_score,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeValidationError(r.Context(), w, "complete_milestone", err)
			return
		}
	}
	milestone, err := h.service.CompleteMilestone(r.Context(), actor, escrowID, milestoneID, req.QualityScore)
	if err != nil {
		writeMappedError(r.Context(), w, "complete_milestone", err)
		return
	}
	writeSuccess(w, http.StatusOK, toMilestoneResponse(milestone))
}

// escrowCommand handles the body-less state transition endpoints.
func (h *Handler) escrowCommand(w http.ResponseWriter, r *http.Request, operation string, fn func(ctx context.Context, actor application.Actor, escrowID uuid.UUID) (domain.SmartEscrow, error)) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingActorError(r.Context(), w, operation)
		return
	}
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	escrow, err := fn(r.Context(), actor, escrowID)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, toEscrowResponse(escrow))
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed %s", name)
	}
	return id, nil
}

func escrowMilestoneParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	escrowID, err := uuidParam(r, "escrow_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	milestoneID, err := uuidParam(r, "milestone_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return escrowID, milestoneID, nil
}

func toCreateEscrowInput(req contracts.CreateEscrowRequest) (application.CreateEscrowInput, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return application.CreateEscrowInput{}, fmt.Errorf("malformed project_id")
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return application.CreateEscrowInput{}, fmt.Errorf("malformed client_id")
	}
	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		return application.CreateEscrowInput{}, fmt.Errorf("malformed freelancer_id")
	}
	milestones := make([]application.MilestonePlanInput, 0, len(req.Milestones))
	for _, item := range req.Milestones {
		milestones = append(milestones, toMilestonePlanInput(item))
	}
	return application.CreateEscrowInput{
		ProjectID:             projectID,
		ClientID:              clientID,
		FreelancerID:          freelancerID,
		CurrencyID:            req.CurrencyID,
		TotalAmount:           req.TotalAmount,
		IsAutomated:           req.IsAutomated,
		AutomationEnabled:     req.AutomationEnabled,
		AutoReleaseDelayHours: req.AutoReleaseDelayHours,
		QualityThreshold:      req.QualityThreshold,
		Milestones:            milestones,
	}, nil
}

func toMilestonePlanInput(item contracts.MilestonePlanItem) application.MilestonePlanInput {
	return application.MilestonePlanInput{
		Title:              item.Title,
		Description:        item.Description,
		Amount:             item.Amount,
		MilestoneType:      item.MilestoneType,
		AutoReleaseEnabled: item.AutoReleaseEnabled,
		ApprovalRequired:   item.ApprovalRequired,
		GracePeriodHours:   item.GracePeriodHours,
		AcceptanceCriteria: item.AcceptanceCriteria,
		DueDate:            item.DueDate,
	}
}
