package trips

import (
	"context"
	"time"

	"rider-booking/internal/fares"
	"rider-booking/internal/rides"
)

// Trip is the backend's record of a ride.
type Trip struct {
	Ride        rides.Ride
	RiderID     string
	RequestedAt time.Time
	AssignedAt  *time.Time
	StartedAt   *time.Time
}

// Rate prices one vehicle class.
type Rate struct {
	Base      float64
	PerKm     float64
	PerMinute float64
	PickupETA int // minutes
}

// DefaultRates are the development backend's flat tariffs in rupees.
var DefaultRates = map[fares.VehicleClass]Rate{
	"car":  {Base: 50, PerKm: 15, PerMinute: 2, PickupETA: 4},
	"auto": {Base: 30, PerKm: 10, PerMinute: 1.5, PickupETA: 3},
	"bike": {Base: 20, PerKm: 6, PerMinute: 1, PickupETA: 2},
}

// Dispatcher finds a driver for a newly created ride and reports progress
// to the rider asynchronously.
type Dispatcher interface {
	Dispatch(ctx context.Context, riderID string, ride rides.Ride) error
}
