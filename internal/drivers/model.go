package drivers

import "rider-booking/internal/rides"

// Driver availability.
const (
	StatusAvailable = "available"
	StatusBusy      = "busy"
)

// Entry is one simulated driver and whether they are on a ride.
type Entry struct {
	Driver rides.Driver `json:"driver"`
	Status string       `json:"status"`
	RideID string       `json:"ride_id,omitempty"`
}

// DefaultRoster seeds the development backend.
var DefaultRoster = []rides.Driver{
	{ID: "drv-car-1", Name: "Ravi Kumar", Phone: "+91 98450 11111", Rating: 4.8,
		Vehicle: rides.Vehicle{Plate: "KA01 AB 1234", Color: "white", Class: "car"}},
	{ID: "drv-car-2", Name: "Meena Shetty", Phone: "+91 98450 22222", Rating: 4.9,
		Vehicle: rides.Vehicle{Plate: "KA05 MN 4567", Color: "silver", Class: "car"}},
	{ID: "drv-bike-1", Name: "Arjun Rao", Phone: "+91 98450 33333", Rating: 4.7,
		Vehicle: rides.Vehicle{Plate: "KA03 HX 7788", Color: "black", Class: "bike"}},
	{ID: "drv-bike-2", Name: "Sameer Khan", Phone: "+91 98450 44444", Rating: 4.6,
		Vehicle: rides.Vehicle{Plate: "KA51 EQ 9012", Color: "red", Class: "bike"}},
	{ID: "drv-auto-1", Name: "Lakshmi Devi", Phone: "+91 98450 55555", Rating: 4.8,
		Vehicle: rides.Vehicle{Plate: "KA02 C 3344", Color: "green", Class: "auto"}},
}
