package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestComputeRouteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/route" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body struct {
			Start Coords `json:"start"`
			End   Coords `json:"end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Start.Longitude != -118.4 || body.End.Latitude != 33.75 {
			t.Errorf("request body = %+v", body)
		}

		_, _ = w.Write([]byte(`{
			"success": true,
			"route": {
				"coordinates": [[-118.4,33.9],[-118.3,33.8],[-118.2,33.75]],
				"distance_km": 31.2,
				"duration_minutes": 38,
				"traffic_delay": 240
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	route, err := c.ComputeRoute(context.Background(), Coords{Longitude: -118.4, Latitude: 33.9}, Coords{Longitude: -118.2, Latitude: 33.75})
	if err != nil {
		t.Fatalf("ComputeRoute: %v", err)
	}

	if len(route.Coordinates) != 3 || route.DistanceKm != 31.2 || route.DurationMinutes != 38 {
		t.Errorf("route = %+v", route)
	}
	if route.TrafficDelaySeconds != 240 {
		t.Errorf("TrafficDelaySeconds = %v", route.TrafficDelaySeconds)
	}
}

func TestComputeRouteBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.ComputeRoute(context.Background(), Coords{}, Coords{})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("err = %v, want ErrBackend", err)
	}
}

func TestComputeRouteTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.ComputeRoute(context.Background(), Coords{}, Coords{})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, ErrBackend) {
		t.Error("transport failure must not be a backend failure")
	}
}

func TestFindNearestSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/find-nearest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body struct {
			Location           Coords `json:"location"`
			InfrastructureType string `json:"infrastructure_type"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.InfrastructureType != "port" {
			t.Errorf("infrastructure_type = %q", body.InfrastructureType)
		}

		// Numeric id, as the PostGIS-backed service emits.
		_, _ = w.Write([]byte(`{
			"success": true,
			"feature": {"id": 10, "name": "Port of Long Beach", "coordinates": {"lon": -118.21, "lat": 33.75}, "distance_km": 4.2}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	f, err := c.FindNearest(context.Background(), Coords{Longitude: -118.2, Latitude: 33.8}, "port")
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}

	if f.ID != "10" || f.Name != "Port of Long Beach" {
		t.Errorf("feature = %+v", f)
	}
	if f.Lon != -118.21 || f.Lat != 33.75 || f.DistanceKm != 4.2 {
		t.Errorf("feature = %+v", f)
	}
}

func TestFindNearestNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FindNearest(context.Background(), Coords{}, "airport")
	if !errors.Is(err, ErrBackend) {
		t.Errorf("err = %v, want ErrBackend", err)
	}
}

func TestFindNearestTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := NewClient(srv.URL, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FindNearest(ctx, Coords{}, "airport")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 800*time.Millisecond {
		t.Error("timeout did not bound the call")
	}
}
