package drivers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rider-booking/pkg/jwt"
)

// Handler exposes the simulated roster.
type Handler struct{ svc *Service }

// NewHandler wires a handler to the roster.
func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router with all driver routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)

	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/release", h.Release)

	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"drivers": h.svc.List(r.Context())})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusAvailable})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
