package drivers

import (
	"context"
	"errors"
	"log"
	"sync"

	"rider-booking/internal/fares"
	"rider-booking/internal/rides"
)

var (
	ErrNoDriver = errors.New("no driver available")
	ErrNotFound = errors.New("driver not found")
)

// Service hands out simulated drivers by vehicle class.
type Service struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewService creates a roster from ds; every driver starts available.
func NewService(ds []rides.Driver) *Service {
	s := &Service{}
	for _, d := range ds {
		s.entries = append(s.entries, &Entry{Driver: d, Status: StatusAvailable})
	}
	return s
}

// Assign reserves the first available driver of class for rideID.
func (s *Service) Assign(ctx context.Context, rideID string, class fares.VehicleClass) (rides.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Status == StatusAvailable && e.Driver.Vehicle.Class == class {
			e.Status = StatusBusy
			e.RideID = rideID
			log.Printf("[drivers] assigned %s to ride %s", e.Driver.ID, rideID)
			return e.Driver, nil
		}
	}
	return rides.Driver{}, ErrNoDriver
}

// Release makes driverID available again.
func (s *Service) Release(ctx context.Context, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Driver.ID == driverID {
			e.Status = StatusAvailable
			e.RideID = ""
			return nil
		}
	}
	return ErrNotFound
}

// GetByID fetches one roster entry.
func (s *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Driver.ID == id {
			return *e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// List returns a copy of the roster.
func (s *Service) List(ctx context.Context) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}
