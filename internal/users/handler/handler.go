// Package handler exposes account signup, login and profile endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/locator/index"
	"bloodlink/internal/users/models"
	"bloodlink/internal/users/service"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	geo     index.Index
	logger  *slog.Logger
}

// New builds the users handler. The geo index is optional; when present,
// profile location changes keep it in sync.
func New(svc *service.Service, geo index.Index, logger *slog.Logger) *Handler {
	return &Handler{service: svc, geo: geo, logger: logger}
}

// RegisterPublic mounts the unauthenticated signup/login routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

// Register mounts the authenticated profile routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/me", h.me)
	r.Patch("/users/me", h.updateProfile)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	u, err := h.service.Register(ctx, req.parsed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.syncGeo(r, u)

	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	token, u, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"user":         u,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.service.GetUser(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[updateProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	u, err := h.service.UpdateProfile(ctx, requestcontext.ActorID(ctx), req.toUpdate())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.syncGeo(r, u)

	httputil.WriteJSON(w, http.StatusOK, u)
}

// syncGeo mirrors the profile location into the proximity index. Index
// drift is recoverable; failures are logged, not surfaced.
func (h *Handler) syncGeo(r *http.Request, u *models.User) {
	if h.geo == nil {
		return
	}
	ctx := r.Context()
	var err error
	if u.Location.IsSet() && u.Active {
		err = h.geo.Upsert(ctx, u.ID, u.Location)
	} else {
		err = h.geo.Remove(ctx, u.ID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "geo index sync failed", "user_id", u.ID, "error", err)
	}
}
