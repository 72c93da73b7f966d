package places

import (
	"context"
	"fmt"
	"net/url"

	"rider-booking/pkg/api"
)

// Client fetches suggestions from the backend's maps endpoint.
type Client struct {
	api *api.Client
}

// NewClient wires a suggestion client to an API client.
func NewClient(c *api.Client) *Client { return &Client{api: c} }

// Suggest returns suggestions for input in ranked order.
func (c *Client) Suggest(ctx context.Context, input string) ([]Suggestion, error) {
	var out []Suggestion
	if err := c.api.Get(ctx, "/maps/get-suggestions", url.Values{"input": {input}}, &out); err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return out, nil
}
