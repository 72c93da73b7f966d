package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"rider-booking/internal/events"
	"rider-booking/internal/fares"
	"rider-booking/internal/rides"
	"rider-booking/pkg/kafka"
)

// Rides is the ride store the matcher advances.
type Rides interface {
	Get(ctx context.Context, id string) (rides.Ride, error)
	Assign(ctx context.Context, id string, driver rides.Driver) (rides.Ride, error)
	Start(ctx context.Context, id string) (rides.Ride, error)
}

// Drivers hands out and takes back simulated drivers.
type Drivers interface {
	Assign(ctx context.Context, rideID string, class fares.VehicleClass) (rides.Driver, error)
	Release(ctx context.Context, driverID string) error
}

// Notifier pushes an event to a rider's connections.
type Notifier interface {
	Push(identity, event string, payload any) int
}

// Config sets the simulated delays.
type Config struct {
	AssignDelay time.Duration
	StartDelay  time.Duration
}

// Matcher assigns a driver to each requested ride after AssignDelay, then
// starts the trip after StartDelay, pushing booking-confirmed and
// trip-started to the rider. With a Kafka client each step travels through
// ride.requested, driver.assigned and trip.started; without one the steps
// run on in-process timers.
type Matcher struct {
	rides    Rides
	drivers  Drivers
	notifier Notifier
	kafka    *kafka.Client
	cfg      Config

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

// NewMatcher creates a matcher. k may be nil.
func NewMatcher(r Rides, d Drivers, n Notifier, k *kafka.Client, cfg Config) *Matcher {
	return &Matcher{rides: r, drivers: d, notifier: n, kafka: k, cfg: cfg, ctx: context.Background()}
}

// Start binds the matcher to ctx. Pending timers stop when ctx is cancelled.
// With Kafka it also starts the topic consumers.
func (m *Matcher) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	if m.kafka == nil {
		log.Printf("[matching] using in-process timers")
		return
	}
	m.kafka.Subscribe(ctx, events.TopicRideRequested, "matching-group", m.onRideRequested)
	m.kafka.Subscribe(ctx, events.TopicDriverAssigned, "matching-assigned", m.onDriverAssigned)
	m.kafka.Subscribe(ctx, events.TopicTripStarted, "matching-started", m.onTripStarted)
	log.Printf("[matching] consuming %s", events.TopicRideRequested)
}

// Wait blocks until every pending timer has fired or been cancelled.
func (m *Matcher) Wait() { m.wg.Wait() }

func (m *Matcher) baseCtx() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// Dispatch schedules driver matching for a new ride.
func (m *Matcher) Dispatch(_ context.Context, riderID string, ride rides.Ride) error {
	ctx := m.baseCtx()
	if m.kafka != nil {
		ev := events.RideRequestedEvent{
			RideID:       ride.ID,
			RiderID:      riderID,
			VehicleClass: ride.VehicleClass,
			RequestedAt:  time.Now().Format(time.RFC3339),
		}
		if err := m.kafka.Publish(ctx, events.TopicRideRequested, ride.ID, ev); err != nil {
			return fmt.Errorf("publish ride.requested: %w", err)
		}
		log.Printf("[matching] published ride.requested for ride %s", ride.ID)
		return nil
	}

	m.after(ctx, m.cfg.AssignDelay, func() {
		assigned, err := m.assign(ctx, riderID, ride.ID, ride.VehicleClass)
		if err != nil {
			log.Printf("[matching] ride %s: %v", ride.ID, err)
			return
		}
		m.confirm(riderID, assigned)
		m.after(ctx, m.cfg.StartDelay, func() {
			started, err := m.rides.Start(ctx, ride.ID)
			if err != nil {
				log.Printf("[matching] start ride %s: %v", ride.ID, err)
				return
			}
			m.started(ctx, riderID, started)
		})
	})
	return nil
}

// after runs fn once d has elapsed unless ctx ends first.
func (m *Matcher) after(ctx context.Context, d time.Duration, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
			fn()
		}
	}()
}

func (m *Matcher) assign(ctx context.Context, riderID, rideID string, class fares.VehicleClass) (rides.Ride, error) {
	driver, err := m.drivers.Assign(ctx, rideID, class)
	if err != nil {
		return rides.Ride{}, fmt.Errorf("no %s driver: %w", class, err)
	}
	ride, err := m.rides.Assign(ctx, rideID, driver)
	if err != nil {
		m.release(ctx, driver.ID)
		return rides.Ride{}, err
	}
	log.Printf("[matching] assigned driver %s → ride %s", driver.ID, rideID)
	return ride, nil
}

func (m *Matcher) confirm(riderID string, ride rides.Ride) {
	m.notifier.Push(riderID, events.EventBookingConfirmed, events.RidePayload{Ride: ride})
}

func (m *Matcher) started(ctx context.Context, riderID string, ride rides.Ride) {
	m.notifier.Push(riderID, events.EventTripStarted, events.RidePayload{Ride: ride})
	// The simulation ends at pickup; free the driver for the next request.
	if ride.Driver != nil {
		m.release(ctx, ride.Driver.ID)
	}
}

func (m *Matcher) release(ctx context.Context, driverID string) {
	if err := m.drivers.Release(ctx, driverID); err != nil {
		log.Printf("[matching] release driver %s: %v", driverID, err)
	}
}

// assignedEvent builds the driver.assigned message for a freshly assigned
// ride.
func assignedEvent(riderID string, ride rides.Ride) (events.DriverAssignedEvent, error) {
	if ride.Driver == nil {
		return events.DriverAssignedEvent{}, fmt.Errorf("ride %s has no driver", ride.ID)
	}
	return events.DriverAssignedEvent{RideID: ride.ID, RiderID: riderID, DriverID: ride.Driver.ID}, nil
}

func (m *Matcher) onRideRequested(data []byte) error {
	var ev events.RideRequestedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	log.Printf("[matching] ride.requested → ride=%s rider=%s", ev.RideID, ev.RiderID)

	ctx := m.baseCtx()
	m.after(ctx, m.cfg.AssignDelay, func() {
		ride, err := m.assign(ctx, ev.RiderID, ev.RideID, ev.VehicleClass)
		if err != nil {
			log.Printf("[matching] ride %s: %v", ev.RideID, err)
			return
		}
		assigned, err := assignedEvent(ev.RiderID, ride)
		if err != nil {
			log.Printf("[matching] %v", err)
			return
		}
		if err := m.kafka.Publish(ctx, events.TopicDriverAssigned, ev.RideID, assigned); err != nil {
			log.Printf("[matching] failed to publish driver.assigned: %v", err)
		}
	})
	return nil
}

func (m *Matcher) onDriverAssigned(data []byte) error {
	var ev events.DriverAssignedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	ctx := m.baseCtx()
	ride, err := m.rides.Get(ctx, ev.RideID)
	if err != nil {
		return err
	}
	m.confirm(ev.RiderID, ride)

	m.after(ctx, m.cfg.StartDelay, func() {
		if _, err := m.rides.Start(ctx, ev.RideID); err != nil {
			log.Printf("[matching] start ride %s: %v", ev.RideID, err)
			return
		}
		started := events.TripStartedEvent{
			RideID:    ev.RideID,
			RiderID:   ev.RiderID,
			StartedAt: time.Now().Format(time.RFC3339),
		}
		if err := m.kafka.Publish(ctx, events.TopicTripStarted, ev.RideID, started); err != nil {
			log.Printf("[matching] failed to publish trip.started: %v", err)
		}
	})
	return nil
}

func (m *Matcher) onTripStarted(data []byte) error {
	var ev events.TripStartedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	ctx := m.baseCtx()
	ride, err := m.rides.Get(ctx, ev.RideID)
	if err != nil {
		return err
	}
	if ride.Status != rides.StatusOngoing {
		return errors.New("trip.started for a ride that is not ongoing")
	}
	m.started(ctx, ev.RiderID, ride)
	return nil
}
