package client

import (
	"context"
	"net/http"

	"everlasting-kin/internal/dashboard"
)

// Dashboard loads the caller's dashboard view and its counters.
func (c *Client) Dashboard(ctx context.Context) (*dashboard.Response, error) {
	var out dashboard.Response
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out); err != nil {
		return nil, withFallback(err, "Failed to load dashboard")
	}
	return &out, nil
}
