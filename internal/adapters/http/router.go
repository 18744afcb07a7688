package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
)

// Handler is the HTTP adapter entrypoint for escrow, auth and admin use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers the HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/login", handler.login)
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/verify", handler.verify)
			r.Post("/logout", handler.logout)
		})
	})

	r.Route("/v1/smart-escrow", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Post("/", handler.createEscrow)
		r.Get("/", handler.listEscrows)
		r.Route("/{escrow_id}", func(r chi.Router) {
			r.Get("/", handler.getEscrow)
			r.Post("/activate", handler.activateEscrow)
			r.Post("/cancel", handler.cancelEscrow)
			r.Post("/release", handler.releaseFunds)
			r.Post("/process-automation", handler.processAutomation)
			r.Get("/automation-events", handler.listAutomationEvents)
			r.Post("/dispute", handler.raiseDispute)
			r.Post("/dispute/resolve", handler.resolveDispute)
			r.Route("/milestones", func(r chi.Router) {
				r.Post("/", handler.addMilestone)
				r.Get("/", handler.listMilestones)
				r.Post("/{milestone_id}/approve", handler.approveMilestone)
				r.Post("/{milestone_id}/complete", handler.completeMilestone)
			})
		})
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", handler.adminLogin)
			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Get("/verify", handler.verify)
				r.Post("/logout", handler.logout)
			})
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Use(adminSurfaceMiddleware)
			r.Get("/admins", handler.listAdmins)
			r.Put("/{user_id}/toggle-status", handler.toggleUserStatus)
			r.Put("/{user_id}/change-role", handler.changeUserRole)
			r.Delete("/{user_id}", handler.deleteUser)
			r.Post("/{user_id}/reset-password", handler.resetPassword)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}
