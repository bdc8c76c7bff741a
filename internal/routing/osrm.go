// Package routing is the HTTP client for the external routing service.
//
// The client speaks the OSRM /route/v1 wire format. Any transport error,
// non-Ok code, or empty route list is returned as an error so the distance
// estimator treats all of them identically and falls back to a
// straight-line figure.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ErrNoRoute is returned when the service answers but finds no drivable
// path between the two points.
var ErrNoRoute = errors.New("routing: no route found")

// Route is the distance/duration pair reported for one journey.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Client queries an OSRM-compatible routing endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a routing client. timeout bounds each request; a
// timed-out call surfaces as an error and counts as a routing failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// osrmResponse mirrors the subset of the OSRM route response we read.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route asks the service for a driving route between pickup and dropoff.
//
// GET {base}/route/v1/driving/{lon},{lat};{lon},{lat}?overview=false
func (c *Client) Route(ctx context.Context, pickup, dropoff model.Coordinates) (*Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.baseURL, pickup.Lon, pickup.Lat, dropoff.Lon, dropoff.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("routing: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing: unexpected status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("routing: malformed response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, ErrNoRoute
	}

	return &Route{
		DistanceMeters:  body.Routes[0].Distance,
		DurationSeconds: body.Routes[0].Duration,
	}, nil
}
