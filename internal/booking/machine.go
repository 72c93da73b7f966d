package booking

import (
	"errors"
	"log"
	"strings"

	"rider-booking/internal/fares"
	"rider-booking/internal/places"
	"rider-booking/internal/rides"
	"rider-booking/pkg/validation"
)

var (
	ErrInvalidPhase    = errors.New("action not allowed in current phase")
	ErrInvalidField    = errors.New("unknown location field")
	ErrMissingLocation = errors.New("pickup and destination are required")
	ErrQuoteInFlight   = errors.New("fare quote already in progress")
	ErrSubmitInFlight  = errors.New("ride submission already in progress")
	ErrUnknownVehicle  = errors.New("vehicle class not offered in current quote")
	ErrNoSuggestion    = errors.New("no such suggestion")
)

// Notice kinds.
const (
	NoticeQuoteFailed  = "quote_failed"
	NoticeSubmitFailed = "submit_failed"
)

// Notice is a blocking, user-visible error message.
type Notice struct {
	Kind    string
	Message string
}

// SuggestRequest identifies one suggestion lookup. Seq orders requests
// within a field.
type SuggestRequest struct {
	Field Field
	Seq   uint64
	Input string
}

type QuoteRequest struct {
	Seq         uint64
	Pickup      string
	Destination string
}

type SubmitRequest struct {
	Seq          uint64
	Pickup       string
	Destination  string
	VehicleClass fares.VehicleClass
}

type locationField struct {
	query       string
	suggestions []places.Suggestion
	seq         uint64
}

// Machine holds a booking session's state and its transition rules. It does
// no I/O and is not safe for concurrent use; Session serializes access.
type Machine struct {
	phase  Phase
	active Field

	pickup      locationField
	destination locationField

	quote     fares.Quote
	quoteSeq  uint64
	selection fares.VehicleClass
	submitSeq uint64
	ride      *rides.Ride
	notice    *Notice
}

// NewMachine returns a Machine in Idle.
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

func (m *Machine) Phase() Phase { return m.phase }

func (m *Machine) Panel() Panel { return m.phase.Panel() }

func (m *Machine) setPhase(to Phase) error {
	if m.phase == to {
		return nil
	}
	if !CanTransition(m.phase, to) {
		return ErrInvalidPhase
	}
	log.Printf("[booking] phase %s -> %s", m.phase, to)
	m.phase = to
	return nil
}

func (m *Machine) field(f Field) *locationField {
	switch f {
	case FieldPickup:
		return &m.pickup
	case FieldDestination:
		return &m.destination
	}
	return nil
}

func (m *Machine) editable() bool {
	switch m.phase {
	case PhaseIdle, PhaseEnteringLocations, PhaseQuoteRequested:
		return true
	}
	return false
}

// enterLocations moves Idle or QuoteRequested into EnteringLocations. A
// quote still in flight is abandoned.
func (m *Machine) enterLocations() {
	if m.phase == PhaseQuoteRequested {
		m.quoteSeq++
	}
	if m.phase != PhaseEnteringLocations {
		_ = m.setPhase(PhaseEnteringLocations)
	}
}

// invalidateQuote drops the quote and selection after a location change.
func (m *Machine) invalidateQuote() {
	m.quote = nil
	m.selection = ""
}

// Focus marks f as the active field.
func (m *Machine) Focus(f Field) error {
	if m.field(f) == nil {
		return ErrInvalidField
	}
	if !m.editable() {
		return ErrInvalidPhase
	}
	m.active = f
	if m.phase == PhaseIdle {
		m.enterLocations()
	}
	return nil
}

// Edit replaces f's query text and returns the suggestion lookup to issue.
// An empty Input means no lookup is needed; the field's list is cleared.
func (m *Machine) Edit(f Field, text string) (SuggestRequest, error) {
	lf := m.field(f)
	if lf == nil {
		return SuggestRequest{}, ErrInvalidField
	}
	if !m.editable() {
		return SuggestRequest{}, ErrInvalidPhase
	}

	m.active = f
	m.enterLocations()
	if lf.query != text {
		m.invalidateQuote()
	}
	lf.query = text
	lf.seq++

	input := strings.TrimSpace(text)
	if input == "" {
		lf.suggestions = nil
	}
	return SuggestRequest{Field: f, Seq: lf.seq, Input: input}, nil
}

// ApplySuggestions stores a lookup result if it answers the latest request
// for its field. Stale responses are dropped and reported as false.
func (m *Machine) ApplySuggestions(f Field, seq uint64, list []places.Suggestion) bool {
	lf := m.field(f)
	if lf == nil || seq != lf.seq {
		return false
	}
	lf.suggestions = append([]places.Suggestion(nil), list...)
	return true
}

// ChooseSuggestion writes the i-th suggestion of f into f's query.
func (m *Machine) ChooseSuggestion(f Field, i int) (string, error) {
	lf := m.field(f)
	if lf == nil {
		return "", ErrInvalidField
	}
	if !m.editable() {
		return "", ErrInvalidPhase
	}
	if i < 0 || i >= len(lf.suggestions) {
		return "", ErrNoSuggestion
	}

	text := lf.suggestions[i].Text()
	m.active = f
	m.enterLocations()
	if lf.query != text {
		m.invalidateQuote()
	}
	lf.query = text
	lf.suggestions = nil
	lf.seq++
	return text, nil
}

// BeginQuote moves EnteringLocations to QuoteRequested.
func (m *Machine) BeginQuote() (QuoteRequest, error) {
	switch m.phase {
	case PhaseIdle:
		return QuoteRequest{}, ErrMissingLocation
	case PhaseQuoteRequested:
		return QuoteRequest{}, ErrQuoteInFlight
	case PhaseEnteringLocations:
	default:
		return QuoteRequest{}, ErrInvalidPhase
	}

	pickup := strings.TrimSpace(m.pickup.query)
	destination := strings.TrimSpace(m.destination.query)
	if !validation.ValidLocation(pickup) || !validation.ValidLocation(destination) {
		return QuoteRequest{}, ErrMissingLocation
	}

	if err := m.setPhase(PhaseQuoteRequested); err != nil {
		return QuoteRequest{}, err
	}
	m.quoteSeq++
	m.notice = nil
	m.invalidateQuote()
	return QuoteRequest{Seq: m.quoteSeq, Pickup: pickup, Destination: destination}, nil
}

// QuoteSucceeded applies a quote result. An empty quote counts as a failure.
func (m *Machine) QuoteSucceeded(seq uint64, q fares.Quote) bool {
	if m.phase != PhaseQuoteRequested || seq != m.quoteSeq {
		return false
	}
	if len(q) == 0 {
		return m.QuoteFailed(seq, fares.ErrNoRides)
	}
	m.quote = q.Clone()
	m.selection = ""
	_ = m.setPhase(PhaseVehicleSelection)
	return true
}

// QuoteFailed reverts to EnteringLocations with a notice.
func (m *Machine) QuoteFailed(seq uint64, err error) bool {
	if m.phase != PhaseQuoteRequested || seq != m.quoteSeq {
		return false
	}
	_ = m.setPhase(PhaseEnteringLocations)
	m.notice = &Notice{Kind: NoticeQuoteFailed, Message: "No rides available for this route"}
	return true
}

// ConfirmVehicle selects class and moves to ConfirmationPending.
func (m *Machine) ConfirmVehicle(class fares.VehicleClass) error {
	if m.phase != PhaseVehicleSelection {
		return ErrInvalidPhase
	}
	if !m.quote.Has(class) {
		return ErrUnknownVehicle
	}
	m.selection = class
	return m.setPhase(PhaseConfirmationPending)
}

// BeginSubmit moves ConfirmationPending to SubmittingRide.
func (m *Machine) BeginSubmit() (SubmitRequest, error) {
	switch m.phase {
	case PhaseSubmittingRide:
		return SubmitRequest{}, ErrSubmitInFlight
	case PhaseConfirmationPending:
	default:
		return SubmitRequest{}, ErrInvalidPhase
	}
	if !m.quote.Has(m.selection) {
		return SubmitRequest{}, ErrUnknownVehicle
	}
	if err := m.setPhase(PhaseSubmittingRide); err != nil {
		return SubmitRequest{}, err
	}
	m.submitSeq++
	m.notice = nil
	return SubmitRequest{
		Seq:          m.submitSeq,
		Pickup:       strings.TrimSpace(m.pickup.query),
		Destination:  strings.TrimSpace(m.destination.query),
		VehicleClass: m.selection,
	}, nil
}

// SubmitSucceeded moves SubmittingRide to DriverSearching.
func (m *Machine) SubmitSucceeded(seq uint64) bool {
	if m.phase != PhaseSubmittingRide || seq != m.submitSeq {
		return false
	}
	_ = m.setPhase(PhaseDriverSearching)
	return true
}

// SubmitFailed reverts to VehicleSelection with a notice.
func (m *Machine) SubmitFailed(seq uint64, err error) bool {
	if m.phase != PhaseSubmittingRide || seq != m.submitSeq {
		return false
	}
	_ = m.setPhase(PhaseVehicleSelection)
	m.notice = &Notice{Kind: NoticeSubmitFailed, Message: "Could not request your ride, please try again"}
	return true
}

func (m *Machine) foreign(r rides.Ride) bool {
	return m.ride != nil && m.ride.ID != r.ID
}

// RideConfirmed applies a booking-confirmed push. It returns false when the
// event changes nothing: duplicates, stray events before any submission, and
// events for a different ride.
func (m *Machine) RideConfirmed(r rides.Ride) bool {
	if m.foreign(r) {
		log.Printf("[booking] ignoring booking-confirmed for foreign ride %s", r.ID)
		return false
	}
	switch m.phase {
	case PhaseSubmittingRide:
		// The push beat the submission response; the late response is moot.
		m.submitSeq++
		_ = m.setPhase(PhaseDriverSearching)
	case PhaseDriverSearching:
	default:
		return false
	}
	ride := r.Clone()
	m.ride = &ride
	_ = m.setPhase(PhaseWaitingForDriver)
	return true
}

// TripStarted applies a trip-started push, fast-forwarding through
// booking-confirmed when that event has not been seen yet.
func (m *Machine) TripStarted(r rides.Ride) bool {
	if m.foreign(r) {
		log.Printf("[booking] ignoring trip-started for foreign ride %s", r.ID)
		return false
	}
	switch m.phase {
	case PhaseSubmittingRide, PhaseDriverSearching:
		m.RideConfirmed(r)
	case PhaseWaitingForDriver:
	default:
		return false
	}
	ride := r.Clone()
	m.ride = &ride
	_ = m.setPhase(PhaseHandedOff)
	return true
}

// ReopenLocations goes back from VehicleSelection to the location editor.
func (m *Machine) ReopenLocations() error {
	if m.phase != PhaseVehicleSelection {
		return ErrInvalidPhase
	}
	m.selection = ""
	return m.setPhase(PhaseEnteringLocations)
}

// CancelConfirm goes back from ConfirmationPending to VehicleSelection.
func (m *Machine) CancelConfirm() error {
	if m.phase != PhaseConfirmationPending {
		return ErrInvalidPhase
	}
	return m.setPhase(PhaseVehicleSelection)
}

// CancelSearch stops waiting for a driver. Later pushes for the abandoned
// submission are ignored.
func (m *Machine) CancelSearch() error {
	if m.phase != PhaseDriverSearching {
		return ErrInvalidPhase
	}
	m.submitSeq++
	return m.setPhase(PhaseVehicleSelection)
}

// Reset clears all booking data and returns to Idle. Sequence counters keep
// counting so responses to earlier requests stay stale.
func (m *Machine) Reset() error {
	if m.phase == PhaseHandedOff {
		return ErrInvalidPhase
	}
	if err := m.setPhase(PhaseIdle); err != nil {
		return err
	}
	m.active = FieldNone
	m.pickup = locationField{seq: m.pickup.seq + 1}
	m.destination = locationField{seq: m.destination.seq + 1}
	m.quoteSeq++
	m.submitSeq++
	m.quote = nil
	m.selection = ""
	m.ride = nil
	m.notice = nil
	return nil
}

// DismissNotice clears the current notice.
func (m *Machine) DismissNotice() {
	m.notice = nil
}

// Snapshot returns a deep copy of the visible state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Phase:                  m.phase,
		Panel:                  m.phase.Panel(),
		Pickup:                 m.pickup.query,
		Destination:            m.destination.query,
		ActiveField:            m.active,
		PickupSuggestions:      append([]places.Suggestion(nil), m.pickup.suggestions...),
		DestinationSuggestions: append([]places.Suggestion(nil), m.destination.suggestions...),
		Quote:                  m.quote.Clone(),
		Selection:              m.selection,
	}
	if m.ride != nil {
		r := m.ride.Clone()
		s.Ride = &r
	}
	if m.notice != nil {
		n := *m.notice
		s.Notice = &n
	}
	return s
}

// Snapshot is a point-in-time copy of a booking session.
type Snapshot struct {
	Phase                  Phase
	Panel                  Panel
	Pickup                 string
	Destination            string
	ActiveField            Field
	PickupSuggestions      []places.Suggestion
	DestinationSuggestions []places.Suggestion
	Quote                  fares.Quote
	Selection              fares.VehicleClass
	Ride                   *rides.Ride
	Notice                 *Notice
}

// Suggestions returns the list shown in the location panel: the active
// field's.
func (s Snapshot) Suggestions() []places.Suggestion {
	switch s.ActiveField {
	case FieldPickup:
		return s.PickupSuggestions
	case FieldDestination:
		return s.DestinationSuggestions
	}
	return nil
}
