package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"rider-booking/internal/drivers"
	"rider-booking/internal/maps"
	"rider-booking/internal/tracking"
	"rider-booking/internal/trips"
	"rider-booking/internal/users"
	"rider-booking/pkg/jwt"
)

// Deps are the services behind the development backend's routes.
type Deps struct {
	Signer  *jwt.Signer
	Users   *users.Service
	Drivers *drivers.Service
	Trips   *trips.Service
	Maps    maps.Service
	Hub     *tracking.Hub
}

// NewRouter mounts every backend route on a chi router.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(d.Signer.OptionalAuth)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"ridesim"}`))
	})

	r.Mount("/auth", users.NewHandler(d.Users).Routes())
	r.Mount("/maps", maps.NewHandler(d.Maps).Routes())
	r.Mount("/rides", trips.NewHandler(d.Trips).Routes())
	r.Mount("/drivers", drivers.NewHandler(d.Drivers).Routes())
	r.Mount("/ws", d.Hub.Routes())

	return r
}
