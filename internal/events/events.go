package events

import (
	"encoding/json"

	"rider-booking/internal/fares"
	"rider-booking/internal/rides"
)

// Push channel event names.
const (
	EventJoin             = "join"
	EventBookingConfirmed = "booking-confirmed"
	EventTripStarted      = "trip-started"
)

// RoleRider is the role announced by rider sessions on join.
const RoleRider = "rider"

// Envelope is one frame on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope for event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// JoinPayload announces a session's presence on the channel.
type JoinPayload struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

// RidePayload is the body of booking-confirmed and trip-started.
type RidePayload struct {
	Ride rides.Ride `json:"ride"`
}

// Kafka topics used by the development backend's dispatch pipeline.
const (
	TopicRideRequested  = "ride.requested"
	TopicDriverAssigned = "driver.assigned"
	TopicTripStarted    = "trip.started"
)

// RideRequestedEvent is published to ride.requested.
type RideRequestedEvent struct {
	RideID       string             `json:"ride_id"`
	RiderID      string             `json:"rider_id"`
	VehicleClass fares.VehicleClass `json:"vehicle_class"`
	RequestedAt  string             `json:"requested_at"`
}

// DriverAssignedEvent is published to driver.assigned.
type DriverAssignedEvent struct {
	RideID   string `json:"ride_id"`
	RiderID  string `json:"rider_id"`
	DriverID string `json:"driver_id"`
}

// TripStartedEvent is published to trip.started.
type TripStartedEvent struct {
	RideID    string `json:"ride_id"`
	RiderID   string `json:"rider_id"`
	StartedAt string `json:"started_at"`
}
