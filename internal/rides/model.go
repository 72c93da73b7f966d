package rides

import "rider-booking/internal/fares"

// Status values echoed by the backend for a ride.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Vehicle describes the car a driver arrives in.
type Vehicle struct {
	Plate string             `json:"plate"`
	Color string             `json:"color"`
	Class fares.VehicleClass `json:"class"`
}

// Driver is attached to a ride once one has been assigned.
type Driver struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone,omitempty"`
	Rating  float64 `json:"rating,omitempty"`
	Vehicle Vehicle `json:"vehicle"`
}

// Ride is the client's read-only echo of a server-side ride.
type Ride struct {
	ID           string             `json:"id"`
	Pickup       string             `json:"pickup"`
	Destination  string             `json:"destination"`
	VehicleClass fares.VehicleClass `json:"vehicleType"`
	Status       string             `json:"status"`
	Fare         float64            `json:"fare,omitempty"`
	OTP          string             `json:"otp,omitempty"`
	Driver       *Driver            `json:"driver,omitempty"`
}

// Clone returns a deep copy.
func (r Ride) Clone() Ride {
	if r.Driver != nil {
		d := *r.Driver
		r.Driver = &d
	}
	return r
}

// CreateRequest is the body for POST /rides/create.
type CreateRequest struct {
	Pickup      string             `json:"pickup"`
	Destination string             `json:"destination"`
	VehicleType fares.VehicleClass `json:"vehicleType"`
}
