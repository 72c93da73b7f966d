package maps

import (
	"context"
	"fmt"
	"strings"

	gmaps "googlemaps.github.io/maps"

	"rider-booking/internal/places"
)

// GoogleService handles interactions with the Google Places and Directions
// APIs.
type GoogleService struct {
	client *gmaps.Client
	region string
}

// NewGoogleService creates a GoogleService with the given API key.
func NewGoogleService(apiKey string) (*GoogleService, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleService{client: client, region: "in"}, nil
}

// Suggest returns Places Autocomplete predictions for input.
func (s *GoogleService) Suggest(ctx context.Context, input string) ([]places.Suggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []places.Suggestion{}, nil
	}
	resp, err := s.client.PlaceAutocomplete(ctx, &gmaps.PlaceAutocompleteRequest{
		Input:      input,
		Components: map[gmaps.Component][]string{
			gmaps.ComponentCountry: {s.region},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	out := make([]places.Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		label := p.StructuredFormatting.MainText
		if label == "" {
			label = p.Description
		}
		out = append(out, places.Suggestion{
			Label:   label,
			Address: p.Description,
			PlaceID: p.PlaceID,
		})
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out, nil
}

// Route returns the driving distance and duration of the first route found.
func (s *GoogleService) Route(ctx context.Context, origin, destination string) (Route, error) {
	routes, _, err := s.client.Directions(ctx, &gmaps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        gmaps.TravelModeDriving,
		Region:      s.region,
	})
	if err != nil {
		return Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("%w: no route from %q to %q", ErrUnknownPlace, origin, destination)
	}

	leg := routes[0].Legs[0]
	return Route{
		DistanceKm: float64(leg.Distance.Meters) / 1000,
		Duration:   leg.Duration,
	}, nil
}
