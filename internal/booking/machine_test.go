package booking

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"rider-booking/internal/fares"
	"rider-booking/internal/places"
	"rider-booking/internal/rides"
)

var testQuote = fares.Quote{
	"car":  {Price: 120, ETA: 4},
	"bike": {Price: 45, ETA: 2},
}

func testRide(id string) rides.Ride {
	return rides.Ride{
		ID:           id,
		Pickup:       "A",
		Destination:  "B",
		VehicleClass: "bike",
		Status:       rides.StatusAccepted,
		OTP:          "4821",
		Driver: &rides.Driver{
			ID:      "d1",
			Name:    "Ravi",
			Vehicle: rides.Vehicle{Plate: "KA01AB1234", Color: "black", Class: "bike"},
		},
	}
}

// machineAt drives a fresh Machine to the requested phase along the happy
// path and returns the last submit request issued, if any.
func machineAt(t *testing.T, target Phase) (*Machine, SubmitRequest) {
	t.Helper()
	m := NewMachine()
	var sub SubmitRequest
	step := func(p Phase, fn func() error) bool {
		if m.Phase() == target {
			return false
		}
		if err := fn(); err != nil {
			t.Fatalf("advance to %s: %v", p, err)
		}
		if m.Phase() != p {
			t.Fatalf("phase = %s, want %s", m.Phase(), p)
		}
		return true
	}

	steps := []struct {
		phase Phase
		fn    func() error
	}{
		{PhaseEnteringLocations, func() error {
			if _, err := m.Edit(FieldPickup, "A"); err != nil {
				return err
			}
			_, err := m.Edit(FieldDestination, "B")
			return err
		}},
		{PhaseQuoteRequested, func() error { _, err := m.BeginQuote(); return err }},
		{PhaseVehicleSelection, func() error {
			if !m.QuoteSucceeded(m.quoteSeq, testQuote) {
				return errors.New("quote not applied")
			}
			return nil
		}},
		{PhaseConfirmationPending, func() error { return m.ConfirmVehicle("bike") }},
		{PhaseSubmittingRide, func() error {
			var err error
			sub, err = m.BeginSubmit()
			return err
		}},
		{PhaseDriverSearching, func() error {
			if !m.SubmitSucceeded(sub.Seq) {
				return errors.New("submit not applied")
			}
			return nil
		}},
		{PhaseWaitingForDriver, func() error {
			if !m.RideConfirmed(testRide("r1")) {
				return errors.New("confirmation not applied")
			}
			return nil
		}},
		{PhaseHandedOff, func() error {
			if !m.TripStarted(testRide("r1")) {
				return errors.New("trip start not applied")
			}
			return nil
		}},
	}
	for _, s := range steps {
		if !step(s.phase, s.fn) {
			break
		}
	}
	if m.Phase() != target {
		t.Fatalf("could not reach %s", target)
	}
	return m, sub
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseIdle, PhaseEnteringLocations, true},
		{PhaseIdle, PhaseQuoteRequested, false},
		{PhaseEnteringLocations, PhaseQuoteRequested, true},
		{PhaseQuoteRequested, PhaseVehicleSelection, true},
		{PhaseQuoteRequested, PhaseConfirmationPending, false},
		{PhaseVehicleSelection, PhaseConfirmationPending, true},
		{PhaseConfirmationPending, PhaseSubmittingRide, true},
		{PhaseConfirmationPending, PhaseDriverSearching, false},
		{PhaseSubmittingRide, PhaseDriverSearching, true},
		{PhaseSubmittingRide, PhaseVehicleSelection, true},
		{PhaseDriverSearching, PhaseWaitingForDriver, true},
		{PhaseDriverSearching, PhaseHandedOff, false},
		{PhaseWaitingForDriver, PhaseHandedOff, true},
		{PhaseHandedOff, PhaseIdle, false},
		{PhaseHandedOff, PhaseEnteringLocations, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestPanelPerPhase(t *testing.T) {
	want := map[Phase]Panel{
		PhaseIdle:                PanelLocationEntry,
		PhaseEnteringLocations:   PanelLocationEntry,
		PhaseQuoteRequested:      PanelLocationEntry,
		PhaseVehicleSelection:    PanelVehicleSelection,
		PhaseConfirmationPending: PanelConfirm,
		PhaseSubmittingRide:      PanelConfirm,
		PhaseDriverSearching:     PanelDriverSearch,
		PhaseWaitingForDriver:    PanelWaitingForDriver,
		PhaseHandedOff:           PanelNone,
	}
	for phase, panel := range want {
		m, _ := machineAt(t, phase)
		if got := m.Panel(); got != panel {
			t.Errorf("%s: panel = %s, want %s", phase, got, panel)
		}
		if got := m.Snapshot().Panel; got != panel {
			t.Errorf("%s: snapshot panel = %s, want %s", phase, got, panel)
		}
	}
}

func TestHappyPath(t *testing.T) {
	m, sub := machineAt(t, PhaseHandedOff)

	if sub.Pickup != "A" || sub.Destination != "B" || sub.VehicleClass != "bike" {
		t.Fatalf("submit request = %+v", sub)
	}
	snap := m.Snapshot()
	if snap.Ride == nil || snap.Ride.ID != "r1" {
		t.Fatalf("ride = %+v, want r1", snap.Ride)
	}
	if snap.Selection != "bike" {
		t.Errorf("selection = %q, want bike", snap.Selection)
	}
	if err := m.Reset(); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Reset after hand-off = %v, want ErrInvalidPhase", err)
	}
}

func TestSuggestionsLastRequestWins(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		m := NewMachine()
		type pending struct {
			req  SuggestRequest
			list []places.Suggestion
		}
		var reqs []pending
		latest := map[Field]SuggestRequest{}

		n := 2 + rng.Intn(6)
		for i := 0; i < n; i++ {
			f := FieldPickup
			if rng.Intn(2) == 0 {
				f = FieldDestination
			}
			text := fmt.Sprintf("%s-%d", f, i)
			req, err := m.Edit(f, text)
			if err != nil {
				t.Fatalf("Edit: %v", err)
			}
			reqs = append(reqs, pending{req: req, list: []places.Suggestion{{Label: text}}})
			latest[f] = req
		}

		rng.Shuffle(len(reqs), func(i, j int) { reqs[i], reqs[j] = reqs[j], reqs[i] })
		for _, p := range reqs {
			applied := m.ApplySuggestions(p.req.Field, p.req.Seq, p.list)
			if applied != (p.req == latest[p.req.Field]) {
				t.Fatalf("round %d: ApplySuggestions(%v) = %v", round, p.req, applied)
			}
		}

		snap := m.Snapshot()
		for f, req := range latest {
			list := snap.PickupSuggestions
			if f == FieldDestination {
				list = snap.DestinationSuggestions
			}
			if len(list) != 1 || list[0].Label != req.Input {
				t.Fatalf("round %d: %s suggestions = %v, want response to %q", round, f, list, req.Input)
			}
		}
	}
}

func TestEditEmptyClearsSuggestions(t *testing.T) {
	m := NewMachine()
	req, _ := m.Edit(FieldPickup, "Cen")
	m.ApplySuggestions(FieldPickup, req.Seq, []places.Suggestion{{Label: "Central"}})

	req, err := m.Edit(FieldPickup, "  ")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if req.Input != "" {
		t.Errorf("Input = %q, want empty", req.Input)
	}
	if got := m.Snapshot().Suggestions(); len(got) != 0 {
		t.Errorf("suggestions = %v, want none", got)
	}
}

func TestChooseSuggestion(t *testing.T) {
	m := NewMachine()
	req, _ := m.Edit(FieldDestination, "air")
	m.ApplySuggestions(FieldDestination, req.Seq, []places.Suggestion{
		{Label: "Airport", Address: "Kempegowda International Airport"},
		{Label: "Airlines Hotel"},
	})

	if _, err := m.ChooseSuggestion(FieldDestination, 5); !errors.Is(err, ErrNoSuggestion) {
		t.Fatalf("out of range = %v, want ErrNoSuggestion", err)
	}
	text, err := m.ChooseSuggestion(FieldDestination, 0)
	if err != nil {
		t.Fatalf("ChooseSuggestion: %v", err)
	}
	if text != "Kempegowda International Airport" {
		t.Errorf("text = %q", text)
	}
	snap := m.Snapshot()
	if snap.Destination != text || len(snap.DestinationSuggestions) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	// The old lookup is now stale.
	if m.ApplySuggestions(FieldDestination, req.Seq, []places.Suggestion{{Label: "late"}}) {
		t.Error("stale suggestions applied after choosing")
	}
}

func TestBeginQuoteRequiresLocations(t *testing.T) {
	m := NewMachine()
	if _, err := m.BeginQuote(); !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("from Idle = %v, want ErrMissingLocation", err)
	}
	m.Edit(FieldPickup, "A")
	m.Edit(FieldDestination, "   ")
	if _, err := m.BeginQuote(); !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("blank destination = %v, want ErrMissingLocation", err)
	}
	if m.Phase() != PhaseEnteringLocations {
		t.Fatalf("phase = %s", m.Phase())
	}
	m.Edit(FieldDestination, "B")
	if _, err := m.BeginQuote(); err != nil {
		t.Fatalf("BeginQuote: %v", err)
	}
	if _, err := m.BeginQuote(); !errors.Is(err, ErrQuoteInFlight) {
		t.Fatalf("second BeginQuote = %v, want ErrQuoteInFlight", err)
	}
}

func TestQuoteFailure(t *testing.T) {
	cases := []struct {
		name  string
		apply func(m *Machine, seq uint64) bool
	}{
		{"error", func(m *Machine, seq uint64) bool { return m.QuoteFailed(seq, errors.New("boom")) }},
		{"empty", func(m *Machine, seq uint64) bool { return m.QuoteSucceeded(seq, fares.Quote{}) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := machineAt(t, PhaseQuoteRequested)
			if !tc.apply(m, m.quoteSeq) {
				t.Fatal("failure not applied")
			}
			snap := m.Snapshot()
			if snap.Phase != PhaseEnteringLocations {
				t.Errorf("phase = %s, want entering_locations", snap.Phase)
			}
			if snap.Notice == nil || snap.Notice.Kind != NoticeQuoteFailed {
				t.Errorf("notice = %+v", snap.Notice)
			}
			if snap.Quote != nil {
				t.Errorf("quote = %v, want nil", snap.Quote)
			}
			if snap.Pickup != "A" || snap.Destination != "B" {
				t.Errorf("locations not kept: %q %q", snap.Pickup, snap.Destination)
			}
		})
	}
}

func TestStaleQuoteIgnored(t *testing.T) {
	m, _ := machineAt(t, PhaseQuoteRequested)
	seq := m.quoteSeq

	// Editing a location abandons the in-flight quote.
	if _, err := m.Edit(FieldDestination, "C"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if m.Phase() != PhaseEnteringLocations {
		t.Fatalf("phase = %s", m.Phase())
	}
	if m.QuoteSucceeded(seq, testQuote) {
		t.Fatal("abandoned quote applied")
	}
	if m.Phase() != PhaseEnteringLocations {
		t.Fatalf("phase = %s after stale quote", m.Phase())
	}
}

func TestEditAfterQuoteInvalidatesIt(t *testing.T) {
	m, _ := machineAt(t, PhaseVehicleSelection)
	if err := m.ReopenLocations(); err != nil {
		t.Fatalf("ReopenLocations: %v", err)
	}
	if m.Snapshot().Quote == nil {
		t.Fatal("reopening alone should keep the quote")
	}
	m.Edit(FieldPickup, "A2")
	if q := m.Snapshot().Quote; q != nil {
		t.Fatalf("quote = %v after edit, want nil", q)
	}
}

func TestConfirmVehicleRejectsUnknownClass(t *testing.T) {
	m, _ := machineAt(t, PhaseVehicleSelection)
	if err := m.ConfirmVehicle("helicopter"); !errors.Is(err, ErrUnknownVehicle) {
		t.Fatalf("ConfirmVehicle = %v, want ErrUnknownVehicle", err)
	}
	if m.Phase() != PhaseVehicleSelection {
		t.Fatalf("phase = %s", m.Phase())
	}
	if err := m.ConfirmVehicle("car"); err != nil {
		t.Fatalf("ConfirmVehicle(car): %v", err)
	}
	if err := m.CancelConfirm(); err != nil {
		t.Fatalf("CancelConfirm: %v", err)
	}
	if m.Phase() != PhaseVehicleSelection {
		t.Fatalf("phase = %s", m.Phase())
	}
}

func TestSubmitFailureReturnsToSelection(t *testing.T) {
	m, sub := machineAt(t, PhaseSubmittingRide)
	if _, err := m.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("second BeginSubmit = %v, want ErrSubmitInFlight", err)
	}
	if !m.SubmitFailed(sub.Seq, errors.New("502")) {
		t.Fatal("failure not applied")
	}
	snap := m.Snapshot()
	if snap.Phase != PhaseVehicleSelection || snap.Notice == nil || snap.Notice.Kind != NoticeSubmitFailed {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Quote == nil {
		t.Fatal("quote dropped on submit failure")
	}
	m.DismissNotice()
	if m.Snapshot().Notice != nil {
		t.Fatal("notice not dismissed")
	}
}

func TestConfirmedBeforeSubmitResponse(t *testing.T) {
	m, sub := machineAt(t, PhaseSubmittingRide)
	if !m.RideConfirmed(testRide("r1")) {
		t.Fatal("confirmation not applied")
	}
	if m.Phase() != PhaseWaitingForDriver {
		t.Fatalf("phase = %s", m.Phase())
	}
	if m.SubmitFailed(sub.Seq, errors.New("timeout")) || m.SubmitSucceeded(sub.Seq) {
		t.Fatal("late submit response applied")
	}
	if m.Phase() != PhaseWaitingForDriver {
		t.Fatalf("phase = %s after late response", m.Phase())
	}
}

func TestDuplicateConfirmationIsIdempotent(t *testing.T) {
	m, _ := machineAt(t, PhaseWaitingForDriver)
	before := m.Snapshot()
	if m.RideConfirmed(testRide("r1")) {
		t.Fatal("duplicate reported a change")
	}
	if after := m.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed:\n%+v\n%+v", before, after)
	}
}

func TestTripStartedFastForwards(t *testing.T) {
	m, _ := machineAt(t, PhaseDriverSearching)
	if !m.TripStarted(testRide("r1")) {
		t.Fatal("trip start not applied")
	}
	snap := m.Snapshot()
	if snap.Phase != PhaseHandedOff || snap.Ride == nil || snap.Ride.ID != "r1" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if m.RideConfirmed(testRide("r1")) {
		t.Fatal("confirmation after hand-off applied")
	}
}

func TestStrayAndForeignPushesIgnored(t *testing.T) {
	for _, phase := range []Phase{PhaseIdle, PhaseEnteringLocations, PhaseVehicleSelection, PhaseConfirmationPending} {
		m, _ := machineAt(t, phase)
		if m.RideConfirmed(testRide("r9")) || m.TripStarted(testRide("r9")) {
			t.Errorf("%s: stray push applied", phase)
		}
		if m.Phase() != phase {
			t.Errorf("%s: phase moved to %s", phase, m.Phase())
		}
	}

	m, _ := machineAt(t, PhaseWaitingForDriver)
	if m.TripStarted(testRide("other")) {
		t.Fatal("foreign trip start applied")
	}
	if m.Phase() != PhaseWaitingForDriver {
		t.Fatalf("phase = %s", m.Phase())
	}
}

func TestCancelSearchIgnoresLaterPushes(t *testing.T) {
	m, _ := machineAt(t, PhaseDriverSearching)
	if err := m.CancelSearch(); err != nil {
		t.Fatalf("CancelSearch: %v", err)
	}
	if m.Phase() != PhaseVehicleSelection {
		t.Fatalf("phase = %s", m.Phase())
	}
	if m.RideConfirmed(testRide("r1")) {
		t.Fatal("push applied after cancel")
	}
}

func TestResetClearsEverything(t *testing.T) {
	for _, phase := range []Phase{PhaseEnteringLocations, PhaseQuoteRequested, PhaseVehicleSelection, PhaseSubmittingRide, PhaseWaitingForDriver} {
		m, sub := machineAt(t, phase)
		quoteSeq := m.quoteSeq
		if err := m.Reset(); err != nil {
			t.Fatalf("%s: Reset: %v", phase, err)
		}
		snap := m.Snapshot()
		want := Snapshot{Phase: PhaseIdle, Panel: PanelLocationEntry}
		if !reflect.DeepEqual(snap, want) {
			t.Errorf("%s: snapshot = %+v", phase, snap)
		}
		if m.QuoteSucceeded(quoteSeq, testQuote) || m.SubmitSucceeded(sub.Seq) {
			t.Errorf("%s: response to pre-reset request applied", phase)
		}
	}
}

func TestActionsRejectedInWrongPhase(t *testing.T) {
	m := NewMachine()
	if err := m.ConfirmVehicle("car"); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("ConfirmVehicle = %v", err)
	}
	if _, err := m.BeginSubmit(); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("BeginSubmit = %v", err)
	}
	if err := m.CancelSearch(); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("CancelSearch = %v", err)
	}
	if err := m.Focus(FieldNone); !errors.Is(err, ErrInvalidField) {
		t.Errorf("Focus(none) = %v", err)
	}

	m, _ = machineAt(t, PhaseVehicleSelection)
	if _, err := m.Edit(FieldPickup, "X"); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Edit in selection = %v", err)
	}
}
