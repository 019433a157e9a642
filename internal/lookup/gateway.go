// Package lookup performs the network lookups triggered by chat
// actions: route computation and nearest-feature search. Each call
// issues exactly one request, no retries, no caching.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrBackend marks a well-formed backend reply reporting failure
// (success: false). Transport and decode problems are returned as-is.
var ErrBackend = errors.New("backend reported failure")

// Route is a successfully computed route.
type Route struct {
	Coordinates         [][]float64
	DistanceKm          float64
	DurationMinutes     float64
	TrafficDelaySeconds float64
}

// NearestFeature is a successful nearest-feature answer.
type NearestFeature struct {
	ID         string
	Name       string
	Lon        float64
	Lat        float64
	DistanceKm float64
}

// Coords is the wire form of a location descriptor.
type Coords struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Gateway is the boundary to the route / find-nearest backend.
type Gateway interface {
	ComputeRoute(ctx context.Context, start, end Coords) (*Route, error)
	FindNearest(ctx context.Context, loc Coords, infrastructureType string) (*NearestFeature, error)
}

// Client talks to the backend over HTTP with a bounded timeout so a
// hung request degrades into a typed error instead of a stuck action.
type Client struct {
	base   string
	client *http.Client
}

// NewClient returns a gateway client for the given base URL.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type routeResponse struct {
	Success bool `json:"success"`
	Route   *struct {
		Coordinates     [][]float64 `json:"coordinates"`
		DistanceKm      float64     `json:"distance_km"`
		DurationMinutes float64     `json:"duration_minutes"`
		TrafficDelay    float64     `json:"traffic_delay"`
	} `json:"route"`
}

// ComputeRoute requests a route between two locations.
func (c *Client) ComputeRoute(ctx context.Context, start, end Coords) (*Route, error) {
	body := struct {
		Start Coords `json:"start"`
		End   Coords `json:"end"`
	}{Start: start, End: end}

	var resp routeResponse
	if err := c.post(ctx, "/api/route", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.Route == nil {
		return nil, fmt.Errorf("%w: no route", ErrBackend)
	}

	return &Route{
		Coordinates:         resp.Route.Coordinates,
		DistanceKm:          resp.Route.DistanceKm,
		DurationMinutes:     resp.Route.DurationMinutes,
		TrafficDelaySeconds: resp.Route.TrafficDelay,
	}, nil
}

type nearestResponse struct {
	Success bool `json:"success"`
	Feature *struct {
		ID          flexID  `json:"id"`
		Name        string  `json:"name"`
		Coordinates Coords2 `json:"coordinates"`
		DistanceKm  float64 `json:"distance_km"`
	} `json:"feature"`
}

// Coords2 is the lon/lat spelling used by the nearest endpoint.
type Coords2 struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// FindNearest requests the closest feature of a category to a location.
func (c *Client) FindNearest(ctx context.Context, loc Coords, infrastructureType string) (*NearestFeature, error) {
	body := struct {
		Location           Coords `json:"location"`
		InfrastructureType string `json:"infrastructure_type"`
	}{Location: loc, InfrastructureType: infrastructureType}

	var resp nearestResponse
	if err := c.post(ctx, "/api/find-nearest", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.Feature == nil {
		return nil, fmt.Errorf("%w: no %s found", ErrBackend, infrastructureType)
	}

	return &NearestFeature{
		ID:         string(resp.Feature.ID),
		Name:       resp.Feature.Name,
		Lon:        resp.Feature.Coordinates.Lon,
		Lat:        resp.Feature.Coordinates.Lat,
		DistanceKm: resp.Feature.DistanceKm,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// flexID accepts both numeric and string feature ids.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
