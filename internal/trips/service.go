package trips

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rider-booking/internal/fares"
	"rider-booking/internal/maps"
	"rider-booking/internal/rides"
	"rider-booking/pkg/validation"
)

var (
	ErrNotFound       = errors.New("ride not found")
	ErrInvalidState   = errors.New("ride not in a valid state for this action")
	ErrInvalidRequest = errors.New("pickup, destination and vehicle type are required")
	ErrNoRoute        = errors.New("no route between pickup and destination")
)

// Service contains ride business logic for the development backend.
type Service struct {
	maps  maps.Service
	rates map[fares.VehicleClass]Rate

	mu         sync.RWMutex
	trips      map[string]*Trip
	dispatcher Dispatcher
}

// NewService creates a ride service that routes with m and prices with rates.
func NewService(m maps.Service, rates map[fares.VehicleClass]Rate) *Service {
	return &Service{maps: m, rates: rates, trips: make(map[string]*Trip)}
}

// SetDispatcher wires the driver dispatcher. Rides created without one stay
// pending.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatcher = d
}

// Fare quotes every vehicle class for the route.
func (s *Service) Fare(ctx context.Context, pickup, destination string) (fares.Quote, error) {
	if !validation.ValidLocation(pickup) || !validation.ValidLocation(destination) {
		return nil, ErrInvalidRequest
	}
	route, err := s.maps.Route(ctx, pickup, destination)
	if err != nil {
		if errors.Is(err, maps.ErrUnknownPlace) {
			return nil, fmt.Errorf("%w: %v", ErrNoRoute, err)
		}
		return nil, err
	}

	q := make(fares.Quote, len(s.rates))
	for class, rate := range s.rates {
		price := rate.Base + route.DistanceKm*rate.PerKm + route.Duration.Minutes()*rate.PerMinute
		q[class] = fares.Estimate{Price: math.Round(price), ETA: rate.PickupETA}
	}
	return q, nil
}

// Create books a pending ride and hands it to the dispatcher.
func (s *Service) Create(ctx context.Context, riderID string, req rides.CreateRequest) (rides.Ride, error) {
	pickup := strings.TrimSpace(req.Pickup)
	destination := strings.TrimSpace(req.Destination)
	if !validation.ValidVehicleClass(string(req.VehicleType)) {
		return rides.Ride{}, ErrInvalidRequest
	}

	q, err := s.Fare(ctx, pickup, destination)
	if err != nil {
		return rides.Ride{}, err
	}
	est, ok := q[req.VehicleType]
	if !ok {
		return rides.Ride{}, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidRequest, req.VehicleType)
	}

	t := &Trip{
		Ride: rides.Ride{
			ID:           uuid.New().String(),
			Pickup:       pickup,
			Destination:  destination,
			VehicleClass: req.VehicleType,
			Status:       rides.StatusPending,
			Fare:         est.Price,
			OTP:          fmt.Sprintf("%04d", rand.Intn(10000)),
		},
		RiderID:     riderID,
		RequestedAt: time.Now(),
	}

	s.mu.Lock()
	s.trips[t.Ride.ID] = t
	d := s.dispatcher
	s.mu.Unlock()

	log.Printf("[trips] created ride %s for rider %s (%s)", t.Ride.ID, riderID, req.VehicleType)
	if d != nil {
		if err := d.Dispatch(ctx, riderID, t.Ride.Clone()); err != nil {
			log.Printf("[trips] dispatch ride %s failed: %v", t.Ride.ID, err)
		}
	}
	return t.Ride.Clone(), nil
}

// Get fetches a ride.
func (s *Service) Get(ctx context.Context, id string) (rides.Ride, error) {
	t, err := s.GetTrip(ctx, id)
	if err != nil {
		return rides.Ride{}, err
	}
	return t.Ride, nil
}

// GetTrip fetches the full record of a ride.
func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return Trip{}, ErrNotFound
	}
	cp := *t
	cp.Ride = t.Ride.Clone()
	return cp, nil
}

// Assign attaches driver to a pending ride.
func (s *Service) Assign(ctx context.Context, id string, driver rides.Driver) (rides.Ride, error) {
	return s.update(id, rides.StatusPending, func(t *Trip, now time.Time) {
		d := driver
		t.Ride.Driver = &d
		t.Ride.Status = rides.StatusAccepted
		t.AssignedAt = &now
	})
}

// Start moves an accepted ride to ongoing.
func (s *Service) Start(ctx context.Context, id string) (rides.Ride, error) {
	return s.update(id, rides.StatusAccepted, func(t *Trip, now time.Time) {
		t.Ride.Status = rides.StatusOngoing
		t.StartedAt = &now
	})
}

func (s *Service) update(id, from string, fn func(*Trip, time.Time)) (rides.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return rides.Ride{}, ErrNotFound
	}
	if t.Ride.Status != from {
		return rides.Ride{}, fmt.Errorf("%w: ride %s is %s", ErrInvalidState, id, t.Ride.Status)
	}
	fn(t, time.Now())
	return t.Ride.Clone(), nil
}
