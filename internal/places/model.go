package places

import "context"

// Suggestion is a place descriptor returned by the lookup service.
type Suggestion struct {
	Label   string `json:"label"`
	Address string `json:"address"`
	PlaceID string `json:"place_id,omitempty"`
}

// Text is the string written into a location field when the suggestion
// is chosen.
func (s Suggestion) Text() string {
	if s.Address != "" {
		return s.Address
	}
	return s.Label
}

// Suggester turns free text into a ranked suggestion list.
type Suggester interface {
	Suggest(ctx context.Context, input string) ([]Suggestion, error)
}
