// Package handler exposes the compatible-donor search endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/locator/service"
	usermodels "bloodlink/internal/users/models"
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

// RegisterStaff mounts the search route. Donor coordinates and distances are
// sensitive, so only staff run searches.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Post("/locator/search", h.search)
}

type searchRequest struct {
	BloodType string  `json:"blood_type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKM  float64 `json:"radius_km"`

	recipientType id.BloodType
}

func (r *searchRequest) Validate() error {
	recipientType, err := id.ParseBloodType(r.BloodType)
	if err != nil {
		return err
	}
	if r.RadiusKM < 0 {
		return dErrors.New(dErrors.CodeValidation, "radius_km cannot be negative")
	}

	r.recipientType = recipientType
	return nil
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[searchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	matches, err := h.service.Search(ctx, service.SearchInput{
		RecipientType: req.recipientType,
		Center:        usermodels.Geo{Latitude: req.Latitude, Longitude: req.Longitude},
		RadiusKM:      req.RadiusKM,
	}, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
