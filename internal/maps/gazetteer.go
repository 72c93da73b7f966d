package maps

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"rider-booking/internal/places"
	"rider-booking/pkg/validation"
)

// Place is a named point in the offline gazetteer.
type Place struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

// DefaultPlaces is a small Bengaluru gazetteer for local development.
var DefaultPlaces = []Place{
	{"MG Road Metro", "MG Road Metro Station, Bengaluru", 12.9755, 77.6067},
	{"Majestic", "Kempegowda Bus Station, Majestic, Bengaluru", 12.9767, 77.5713},
	{"Kempegowda International Airport", "Kempegowda International Airport, Devanahalli, Bengaluru", 13.1986, 77.7066},
	{"Koramangala", "Koramangala 5th Block, Bengaluru", 12.9352, 77.6245},
	{"Indiranagar", "100 Feet Road, Indiranagar, Bengaluru", 12.9719, 77.6412},
	{"Whitefield", "ITPL Main Road, Whitefield, Bengaluru", 12.9698, 77.7500},
	{"Electronic City", "Electronic City Phase 1, Bengaluru", 12.8452, 77.6602},
	{"Jayanagar", "Jayanagar 4th Block, Bengaluru", 12.9250, 77.5938},
	{"Cubbon Park", "Cubbon Park, Kasturba Road, Bengaluru", 12.9763, 77.5929},
	{"Bangalore Palace", "Bangalore Palace, Vasanth Nagar, Bengaluru", 12.9987, 77.5920},
	{"Hebbal", "Hebbal Flyover, Bengaluru", 13.0358, 77.5970},
	{"Yeshwanthpur Junction", "Yeshwanthpur Railway Station, Bengaluru", 13.0230, 77.5500},
}

// averageSpeedKmh turns gazetteer distances into driving times.
const averageSpeedKmh = 24.0

const maxSuggestions = 5

// Gazetteer answers suggestions and routes from a fixed list of places.
type Gazetteer struct {
	places []Place
}

// NewGazetteer skips places with out-of-range coordinates.
func NewGazetteer(ps []Place) *Gazetteer {
	g := &Gazetteer{places: make([]Place, 0, len(ps))}
	for _, p := range ps {
		if !validation.ValidateCoordinates(p.Lat, p.Lng) {
			log.Printf("[maps] skipping %q: bad coordinates %.4f,%.4f", p.Name, p.Lat, p.Lng)
			continue
		}
		g.places = append(g.places, p)
	}
	return g
}

// Suggest returns places whose name or address contains input, names that
// start with input first.
func (g *Gazetteer) Suggest(_ context.Context, input string) ([]places.Suggestion, error) {
	q := strings.ToLower(strings.TrimSpace(input))
	if q == "" {
		return []places.Suggestion{}, nil
	}

	var prefix, contains []places.Suggestion
	for _, p := range g.places {
		name := strings.ToLower(p.Name)
		s := places.Suggestion{Label: p.Name, Address: p.Address}
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, s)
		case strings.Contains(name, q) || strings.Contains(strings.ToLower(p.Address), q):
			contains = append(contains, s)
		}
	}
	out := append(prefix, contains...)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	if out == nil {
		out = []places.Suggestion{}
	}
	return out, nil
}

// Lookup resolves text to a place by exact name or address, then by
// unique substring match.
func (g *Gazetteer) Lookup(text string) (Place, error) {
	q := strings.ToLower(strings.TrimSpace(text))
	var matches []Place
	for _, p := range g.places {
		if strings.ToLower(p.Name) == q || strings.ToLower(p.Address) == q {
			return p, nil
		}
		if q != "" && (strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Address), q)) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return Place{}, fmt.Errorf("%w: %q", ErrUnknownPlace, text)
}

// Route returns the straight-line distance between two gazetteer places.
func (g *Gazetteer) Route(_ context.Context, origin, destination string) (Route, error) {
	from, err := g.Lookup(origin)
	if err != nil {
		return Route{}, err
	}
	to, err := g.Lookup(destination)
	if err != nil {
		return Route{}, err
	}
	km := haversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
	return Route{
		DistanceKm: km,
		Duration:   time.Duration(km / averageSpeedKmh * float64(time.Hour)),
	}, nil
}
