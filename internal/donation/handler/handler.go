// Package handler exposes the donation pipeline over HTTP: registrations,
// health checks and donation processes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/donation/service"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the donor-facing routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/donations", func(r chi.Router) {
		r.Post("/registrations", h.createRegistration)
		r.Get("/registrations", h.listRegistrations)
		r.Get("/registrations/{registrationID}", h.getRegistration)
		r.Patch("/registrations/{registrationID}", h.reschedule)
		r.Get("/processes", h.listProcesses)
		r.Get("/processes/{processID}", h.getProcess)
		r.Get("/health-checks/{healthCheckID}", h.getHealthCheck)
	})
}

// RegisterStaff mounts the staff decision routes.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Put("/donations/health-checks/{healthCheckID}", h.recordHealthCheck)
	r.Patch("/donations/processes/{processID}", h.updateProcess)
}

func (h *Handler) createRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createRegistrationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	bundle, err := h.service.CreateRegistration(ctx, service.RegistrationInput{
		DonorID:      requestcontext.ActorID(ctx),
		GroupID:      req.groupID,
		DonationType: req.donationType,
		ScheduledAt:  req.ScheduledAt,
		Screening:    req.Screening,
	})
	if err != nil {
		// A screening rejection still created the records; return their IDs
		// so the donor can see the rejection on file.
		if dErrors.HasCode(err, dErrors.CodeEligibilityRejected) && bundle != nil {
			httputil.WriteErrorDetails(w, err, map[string]string{
				"registration_id":     bundle.Registration.ID.String(),
				"health_check_id":     bundle.HealthCheck.ID.String(),
				"donation_process_id": bundle.Process.ID.String(),
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, bundle)
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := h.service.ListRegistrationsByDonor(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) listProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procs, err := h.service.ListProcessesByDonor(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"donation_processes": procs})
}

func (h *Handler) getRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := id.ParseDonationRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.GetRegistration(ctx, regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.canView(ctx, reg.DonorID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "registration not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := id.ParseDonationRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[rescheduleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	reg, err := h.service.GetRegistration(ctx, regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.canView(ctx, reg.DonorID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "registration not found"))
		return
	}

	reg, err = h.service.RescheduleRegistration(ctx, regID, req.ScheduledAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) getHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hcID, err := id.ParseHealthCheckID(chi.URLParam(r, "healthCheckID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hc, err := h.service.GetHealthCheck(ctx, hcID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.canView(ctx, hc.UserID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "health check not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hc)
}

func (h *Handler) recordHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hcID, err := id.ParseHealthCheckID(chi.URLParam(r, "healthCheckID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[recordHealthCheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	hc, err := h.service.RecordHealthCheck(ctx, hcID, req.toInput(), requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hc)
}

func (h *Handler) getProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procID, err := id.ParseDonationProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proc, err := h.service.GetProcess(ctx, procID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.canView(ctx, proc.DonorID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "donation process not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proc)
}

func (h *Handler) updateProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procID, err := id.ParseDonationProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateProcessRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	proc, err := h.service.UpdateProcessStatus(ctx, procID, service.ProcessUpdateInput{
		Status:      req.status,
		Description: req.Description,
	}, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proc)
}

// canView restricts donor-facing reads to the owning donor; staff and admin
// see everything. Hidden records are reported as not found, not forbidden.
func (h *Handler) canView(ctx context.Context, ownerID id.UserID) bool {
	switch requestcontext.ActorRole(ctx) {
	case requestcontext.RoleStaff, requestcontext.RoleAdmin:
		return true
	default:
		return requestcontext.ActorID(ctx) == ownerID
	}
}
