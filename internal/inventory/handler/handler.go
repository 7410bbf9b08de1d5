// Package handler exposes blood-unit and threshold endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/inventory/service"
	id "bloodlink/pkg/domain"
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

// RegisterStaff mounts the staff inventory routes.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/units", h.listAvailable)
		r.Get("/units/{unitID}", h.getUnit)
		r.Post("/units/{unitID}/use", h.markUsed)
		r.Get("/processes/{processID}/units", h.unitsForProcess)
		r.Post("/processes/{processID}/collections", h.recordCollection)
		r.Get("/thresholds", h.snapshot)
	})
}

// RegisterAdmin mounts the admin-only inventory routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/inventory/thresholds/{thresholdID}", h.updateThreshold)
	r.Post("/inventory/expiry-sweep", h.sweepExpired)
}

// listAvailable filters Available, unexpired units by repeated blood_group_id
// and blood_component_id query parameters. No filters lists everything.
func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var groupIDs []id.BloodGroupID
	for _, raw := range query["blood_group_id"] {
		groupID, err := id.ParseBloodGroupID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		groupIDs = append(groupIDs, groupID)
	}
	var componentIDs []id.BloodComponentID
	for _, raw := range query["blood_component_id"] {
		componentID, err := id.ParseBloodComponentID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		componentIDs = append(componentIDs, componentID)
	}

	units, err := h.service.FindAvailableByGroupAndComponents(ctx, groupIDs, componentIDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := id.ParseBloodUnitID(chi.URLParam(r, "unitID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	unit, err := h.service.GetUnit(ctx, unitID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, unit)
}

func (h *Handler) unitsForProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	processID, err := id.ParseDonationProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	units, err := h.service.UnitsForProcess(ctx, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (h *Handler) recordCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	processID, err := id.ParseDonationProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[recordCollectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.RecordCollectionVolumes(ctx, processID, req.updates, requestcontext.ActorID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	units, err := h.service.UnitsForProcess(ctx, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (h *Handler) markUsed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID, err := id.ParseBloodUnitID(chi.URLParam(r, "unitID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[markUsedRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	unit, err := h.service.MarkUsed(ctx, unitID, req.requestID, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, unit)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	thresholds, err := h.service.Snapshot(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"thresholds": thresholds})
}

func (h *Handler) updateThreshold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	thresholdID, err := id.ParseInventoryThresholdID(chi.URLParam(r, "thresholdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateThresholdRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	threshold, err := h.service.UpdateThreshold(ctx, thresholdID, *req.StableUnitCount, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, threshold)
}

func (h *Handler) sweepExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	swept, err := h.service.MarkExpired(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"swept": swept})
}
