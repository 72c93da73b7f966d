package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"rider-booking/internal/events"
	"rider-booking/internal/fares"
	"rider-booking/internal/places"
	"rider-booking/internal/push"
	"rider-booking/internal/rides"
)

// ErrClosed is returned by actions on a closed session.
var ErrClosed = errors.New("booking session closed")

type Quoter interface {
	Quote(ctx context.Context, pickup, destination string) (fares.Quote, error)
}

type Submitter interface {
	Create(ctx context.Context, pickup, destination string, class fares.VehicleClass) error
}

// Channel is the shared push channel a session subscribes to.
type Channel interface {
	Subscribe(key string, handlers map[string]push.Handler) *push.Subscription
	Join(role, identity string) error
}

// Config wires a Session to its collaborators. OnChange and OnHandOff run
// on the session loop and must not call back into the Session.
type Config struct {
	Identity  string
	Channel   Channel
	Suggester places.Suggester
	Quoter    Quoter
	Submitter Submitter

	OnChange  func(Snapshot)
	OnHandOff func(rides.Ride)
}

// Session runs one booking flow. Every state change happens on a single
// loop goroutine; request completions and push events are posted to it.
type Session struct {
	cfg Config
	m   *Machine

	ops    chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	sub         *push.Subscription
	releaseOnce sync.Once
	closeOnce   sync.Once
	handedOff   bool
}

// NewSession subscribes to the push channel, announces the rider, and
// starts the session loop.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Identity == "" {
		return nil, errors.New("booking: identity is required")
	}
	if cfg.Channel == nil || cfg.Suggester == nil || cfg.Quoter == nil || cfg.Submitter == nil {
		return nil, errors.New("booking: channel, suggester, quoter and submitter are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		m:      NewMachine(),
		ops:    make(chan func()),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run()

	s.sub = cfg.Channel.Subscribe(s.subscriptionKey(), map[string]push.Handler{
		events.EventBookingConfirmed: s.onRideEvent(events.EventBookingConfirmed, (*Machine).RideConfirmed),
		events.EventTripStarted:      s.onRideEvent(events.EventTripStarted, (*Machine).TripStarted),
	})
	if err := cfg.Channel.Join(events.RoleRider, cfg.Identity); err != nil {
		s.Close()
		return nil, err
	}
	log.Printf("[booking] session started for %s", cfg.Identity)
	return s, nil
}

func (s *Session) subscriptionKey() string {
	return "booking:" + s.cfg.Identity
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.ops:
			op()
		}
	}
}

// post queues op on the loop. It reports false once the session is closed.
func (s *Session) post(op func()) bool {
	select {
	case s.ops <- op:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// call runs op on the loop and waits for its result.
func (s *Session) call(op func() error) error {
	errc := make(chan error, 1)
	if !s.post(func() { errc <- op() }) {
		return ErrClosed
	}
	return <-errc
}

// goAsync runs fn off the loop, tracked so Close can wait for it.
func (s *Session) goAsync(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Session) changed() {
	snap := s.m.Snapshot()
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(snap)
	}
	if snap.Phase == PhaseHandedOff && !s.handedOff {
		s.handedOff = true
		s.release()
		log.Printf("[booking] handed off ride %s", snap.Ride.ID)
		if s.cfg.OnHandOff != nil {
			s.cfg.OnHandOff(*snap.Ride)
		}
	}
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		if s.sub != nil {
			s.sub.Release()
		}
	})
}

func (s *Session) onRideEvent(name string, apply func(*Machine, rides.Ride) bool) push.Handler {
	return func(data json.RawMessage) {
		var p events.RidePayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("[booking] bad %s payload: %v", name, err)
			return
		}
		s.post(func() {
			if apply(s.m, p.Ride) {
				s.changed()
			}
		})
	}
}

// Focus marks a location field as active.
func (s *Session) Focus(f Field) error {
	return s.call(func() error {
		if err := s.m.Focus(f); err != nil {
			return err
		}
		s.changed()
		return nil
	})
}

// Edit updates a location field and looks up suggestions for it.
func (s *Session) Edit(f Field, text string) error {
	return s.call(func() error {
		req, err := s.m.Edit(f, text)
		if err != nil {
			return err
		}
		s.changed()
		if req.Input != "" {
			s.fetchSuggestions(req)
		}
		return nil
	})
}

func (s *Session) SetPickup(text string) error { return s.Edit(FieldPickup, text) }

func (s *Session) SetDestination(text string) error { return s.Edit(FieldDestination, text) }

func (s *Session) fetchSuggestions(req SuggestRequest) {
	s.goAsync(func() {
		list, err := s.cfg.Suggester.Suggest(s.ctx, req.Input)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			log.Printf("[places] %s suggestions failed: %v", req.Field, err)
			list = nil
		}
		s.post(func() {
			if s.m.ApplySuggestions(req.Field, req.Seq, list) {
				s.changed()
			}
		})
	})
}

// ChooseSuggestion fills field f from its i-th suggestion.
func (s *Session) ChooseSuggestion(f Field, i int) error {
	return s.call(func() error {
		if _, err := s.m.ChooseSuggestion(f, i); err != nil {
			return err
		}
		s.changed()
		return nil
	})
}

// RequestQuote starts a fare quote for the current locations.
func (s *Session) RequestQuote() error {
	return s.call(func() error {
		req, err := s.m.BeginQuote()
		if err != nil {
			return err
		}
		s.changed()

		s.goAsync(func() {
			q, err := s.cfg.Quoter.Quote(s.ctx, req.Pickup, req.Destination)
			if err != nil && s.ctx.Err() != nil {
				return
			}
			s.post(func() {
				var applied bool
				if err != nil {
					log.Printf("[fares] quote %q -> %q failed: %v", req.Pickup, req.Destination, err)
					applied = s.m.QuoteFailed(req.Seq, err)
				} else {
					applied = s.m.QuoteSucceeded(req.Seq, q)
				}
				if applied {
					s.changed()
				}
			})
		})
		return nil
	})
}

// ConfirmVehicle picks a vehicle class from the current quote.
func (s *Session) ConfirmVehicle(class fares.VehicleClass) error {
	return s.call(func() error {
		if err := s.m.ConfirmVehicle(class); err != nil {
			return err
		}
		s.changed()
		return nil
	})
}

// SubmitRide sends the ride request for the confirmed vehicle class.
func (s *Session) SubmitRide() error {
	return s.call(func() error {
		req, err := s.m.BeginSubmit()
		if err != nil {
			return err
		}
		s.changed()

		s.goAsync(func() {
			err := s.cfg.Submitter.Create(s.ctx, req.Pickup, req.Destination, req.VehicleClass)
			if err != nil && s.ctx.Err() != nil {
				return
			}
			s.post(func() {
				var applied bool
				if err != nil {
					log.Printf("[rides] create %s ride failed: %v", req.VehicleClass, err)
					applied = s.m.SubmitFailed(req.Seq, err)
				} else {
					applied = s.m.SubmitSucceeded(req.Seq)
				}
				if applied {
					s.changed()
				}
			})
		})
		return nil
	})
}

func (s *Session) ReopenLocations() error { return s.apply((*Machine).ReopenLocations) }

func (s *Session) CancelConfirm() error { return s.apply((*Machine).CancelConfirm) }

func (s *Session) CancelSearch() error { return s.apply((*Machine).CancelSearch) }

func (s *Session) Reset() error { return s.apply((*Machine).Reset) }

func (s *Session) DismissNotice() error {
	return s.apply(func(m *Machine) error {
		m.DismissNotice()
		return nil
	})
}

func (s *Session) apply(fn func(*Machine) error) error {
	return s.call(func() error {
		if err := fn(s.m); err != nil {
			return err
		}
		s.changed()
		return nil
	})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.call(func() error {
		snap = s.m.Snapshot()
		return nil
	})
	return snap, err
}

// Done is closed when the session loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the loop, abandons in-flight requests, and releases the push
// subscription. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.wg.Wait()
		s.release()
		log.Printf("[booking] session closed for %s", s.cfg.Identity)
	})
	return nil
}
