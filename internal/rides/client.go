package rides

import (
	"context"
	"fmt"

	"rider-booking/internal/fares"
	"rider-booking/pkg/api"
)

// Client submits ride requests.
type Client struct {
	api *api.Client
}

// NewClient wires a ride client to an API client.
func NewClient(c *api.Client) *Client { return &Client{api: c} }

// Create asks the backend to book a ride. A nil error only means the request
// was accepted; the ride itself is learned later from the push channel.
func (c *Client) Create(ctx context.Context, pickup, destination string, class fares.VehicleClass) error {
	err := c.api.Post(ctx, "/rides/create", CreateRequest{
		Pickup:      pickup,
		Destination: destination,
		VehicleType: class,
	}, nil)
	if err != nil {
		return fmt.Errorf("create ride: %w", err)
	}
	return nil
}
