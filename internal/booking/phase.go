package booking

// Phase is the single discriminant for the current step of the flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEnteringLocations
	PhaseQuoteRequested
	PhaseVehicleSelection
	PhaseConfirmationPending
	PhaseSubmittingRide
	PhaseDriverSearching
	PhaseWaitingForDriver
	PhaseHandedOff
)

var phaseNames = [...]string{
	PhaseIdle:                "idle",
	PhaseEnteringLocations:   "entering_locations",
	PhaseQuoteRequested:      "quote_requested",
	PhaseVehicleSelection:    "vehicle_selection",
	PhaseConfirmationPending: "confirmation_pending",
	PhaseSubmittingRide:      "submitting_ride",
	PhaseDriverSearching:     "driver_searching",
	PhaseWaitingForDriver:    "waiting_for_driver",
	PhaseHandedOff:           "handed_off",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// AllowedTransitions is the booking flow as code. Every live phase may also
// be reset to Idle.
var AllowedTransitions = map[Phase][]Phase{
	PhaseIdle:                {PhaseEnteringLocations},
	PhaseEnteringLocations:   {PhaseQuoteRequested, PhaseIdle},
	PhaseQuoteRequested:      {PhaseVehicleSelection, PhaseEnteringLocations, PhaseIdle},
	PhaseVehicleSelection:    {PhaseConfirmationPending, PhaseEnteringLocations, PhaseIdle},
	PhaseConfirmationPending: {PhaseSubmittingRide, PhaseVehicleSelection, PhaseIdle},
	PhaseSubmittingRide:      {PhaseDriverSearching, PhaseVehicleSelection, PhaseIdle},
	PhaseDriverSearching:     {PhaseWaitingForDriver, PhaseVehicleSelection, PhaseIdle},
	PhaseWaitingForDriver:    {PhaseHandedOff, PhaseIdle},
}

func CanTransition(from, to Phase) bool {
	for _, p := range AllowedTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Panel is one of the mutually exclusive screens of the booking flow.
type Panel int

const (
	PanelNone Panel = iota
	PanelLocationEntry
	PanelVehicleSelection
	PanelConfirm
	PanelDriverSearch
	PanelWaitingForDriver
)

var panelNames = [...]string{
	PanelNone:             "none",
	PanelLocationEntry:    "location_entry",
	PanelVehicleSelection: "vehicle_selection",
	PanelConfirm:          "confirm",
	PanelDriverSearch:     "driver_search",
	PanelWaitingForDriver: "waiting_for_driver",
}

func (p Panel) String() string {
	if p < 0 || int(p) >= len(panelNames) {
		return "unknown"
	}
	return panelNames[p]
}

// Panel returns the one visible panel for p. HandedOff shows none: the
// trip-in-progress screen owns the display from there on.
func (p Phase) Panel() Panel {
	switch p {
	case PhaseIdle, PhaseEnteringLocations, PhaseQuoteRequested:
		return PanelLocationEntry
	case PhaseVehicleSelection:
		return PanelVehicleSelection
	case PhaseConfirmationPending, PhaseSubmittingRide:
		return PanelConfirm
	case PhaseDriverSearching:
		return PanelDriverSearch
	case PhaseWaitingForDriver:
		return PanelWaitingForDriver
	default:
		return PanelNone
	}
}

// Field names a location input box.
type Field int

const (
	FieldNone Field = iota
	FieldPickup
	FieldDestination
)

func (f Field) String() string {
	switch f {
	case FieldPickup:
		return "pickup"
	case FieldDestination:
		return "destination"
	default:
		return "none"
	}
}

// ParseField maps "pickup"/"destination" (or "dest") to a Field.
func ParseField(s string) (Field, bool) {
	switch s {
	case "pickup":
		return FieldPickup, true
	case "destination", "dest":
		return FieldDestination, true
	}
	return FieldNone, false
}
