package validation

import (
	"regexp"
	"strings"
)

var vehicleClassRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// ValidLocation reports whether s is usable as a pickup or destination.
func ValidLocation(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= 200
}

// ValidVehicleClass reports whether s looks like a vehicle class identifier.
func ValidVehicleClass(s string) bool {
	return vehicleClassRegex.MatchString(s)
}

func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && len(name) <= 200
}

func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
