package fares

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"rider-booking/pkg/api"
)

// ErrNoRides is returned when the backend offers no vehicle class for a route.
var ErrNoRides = errors.New("no rides available for this route")

// Client requests fare quotes from the backend.
type Client struct {
	api *api.Client
}

// NewClient wires a fare client to an API client.
func NewClient(c *api.Client) *Client { return &Client{api: c} }

// Quote fetches per-class estimates for a pickup/destination pair.
func (c *Client) Quote(ctx context.Context, pickup, destination string) (Quote, error) {
	var q Quote
	err := c.api.Get(ctx, "/rides/get-fare", url.Values{
		"pickup":      {pickup},
		"destination": {destination},
	}, &q)
	if err != nil {
		return nil, fmt.Errorf("fare quote: %w", err)
	}
	if len(q) == 0 {
		return nil, ErrNoRides
	}
	return q, nil
}
