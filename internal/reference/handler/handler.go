// Package handler exposes the blood-group and blood-component reference
// catalogs.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/reference/store"
	"bloodlink/pkg/platform/httputil"
)

type Handler struct {
	store store.Store
}

func New(s store.Store) *Handler {
	return &Handler{store: s}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reference/blood-groups", h.listGroups)
	r.Get("/reference/blood-components", h.listComponents)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"blood_groups": groups})
}

func (h *Handler) listComponents(w http.ResponseWriter, r *http.Request) {
	components, err := h.store.ListComponents(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"blood_components": components})
}
