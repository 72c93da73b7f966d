package maps

import (
	"context"
	"errors"
	"math"
	"time"

	"rider-booking/internal/places"
)

// ErrUnknownPlace is returned when a location string cannot be resolved.
var ErrUnknownPlace = errors.New("unknown place")

// Route is the distance and driving time between two places.
type Route struct {
	DistanceKm float64
	Duration   time.Duration
}

// Service resolves free text to places and routes.
type Service interface {
	Suggest(ctx context.Context, input string) ([]places.Suggestion, error)
	Route(ctx context.Context, origin, destination string) (Route, error)
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
