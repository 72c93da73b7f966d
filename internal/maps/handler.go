package maps

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rider-booking/pkg/jwt"
)

// Handler exposes the suggestion endpoint.
type Handler struct{ svc Service }

// NewHandler wires a handler to a maps service.
func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router for the /maps mount point.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)
	r.Get("/get-suggestions", h.Suggestions)
	return r
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input is required"})
		return
	}
	list, err := h.svc.Suggest(r.Context(), input)
	if err != nil {
		log.Printf("[maps] suggestions for %q failed: %v", input, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "suggestion lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
