package scene

import "testing"

func TestCameraClamped(t *testing.T) {
	c := Camera{Zoom: 30, Pitch: 100, Bearing: 200}.Clamped()
	if c.Zoom != MaxZoom {
		t.Errorf("Zoom = %v, want %v", c.Zoom, float64(MaxZoom))
	}
	if c.Pitch != MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, float64(MaxPitch))
	}
	if c.Bearing != -160 {
		t.Errorf("Bearing = %v, want -160", c.Bearing)
	}

	c = Camera{Zoom: -3, Pitch: -10, Bearing: -20}.Clamped()
	if c.Zoom != MinZoom || c.Pitch != MinPitch {
		t.Errorf("lower clamp failed: %+v", c)
	}
	if c.Bearing != -20 {
		t.Errorf("Bearing = %v, want -20 unchanged", c.Bearing)
	}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState(Camera{Longitude: -118.2437, Latitude: 34.0522, Zoom: 11, Pitch: 50, Bearing: -20})
	snap := s.Snapshot()

	if !snap.Visibility.Airports || !snap.Visibility.Ports || !snap.Visibility.Warehouses {
		t.Errorf("initial visibility = %+v, want all true", snap.Visibility)
	}
	if snap.Highlight != "" || snap.Route != nil {
		t.Error("initial highlight and route should be empty")
	}
	if snap.Camera.Longitude != -118.2437 {
		t.Errorf("initial camera = %+v", snap.Camera)
	}
}

func TestApplyIsSelective(t *testing.T) {
	s := NewState(Camera{Zoom: 11})

	vis := Visibility{Ports: true}
	snap := s.Apply(Update{Visibility: &vis})
	if snap.Visibility != vis {
		t.Errorf("Visibility = %+v", snap.Visibility)
	}
	if snap.Camera.Zoom != 11 {
		t.Errorf("camera changed by visibility update: %+v", snap.Camera)
	}

	id := "port-7"
	snap = s.Apply(Update{Highlight: &id})
	if snap.Highlight != "port-7" {
		t.Errorf("Highlight = %q", snap.Highlight)
	}
	if snap.Visibility != vis {
		t.Error("visibility changed by highlight update")
	}

	// New highlight silently replaces the previous one.
	next := "airport-2"
	snap = s.Apply(Update{Highlight: &next})
	if snap.Highlight != "airport-2" {
		t.Errorf("Highlight = %q, want airport-2", snap.Highlight)
	}

	// Pointer to empty clears.
	empty := ""
	snap = s.Apply(Update{Highlight: &empty})
	if snap.Highlight != "" {
		t.Errorf("Highlight = %q, want cleared", snap.Highlight)
	}
}

func TestApplyRoute(t *testing.T) {
	s := NewState(Camera{})

	route := RouteOverlay{
		Coordinates:     [][]float64{{0, 0}, {1, 1}},
		DistanceKm:      12.5,
		DurationMinutes: 20,
	}
	snap := s.Apply(Update{Route: &route})
	if snap.Route == nil || snap.Route.DistanceKm != 12.5 {
		t.Fatalf("Route = %+v", snap.Route)
	}

	// An update without route fields leaves the overlay alone.
	cam := Camera{Zoom: 9}
	snap = s.Apply(Update{Camera: &cam})
	if snap.Route == nil {
		t.Fatal("route cleared by unrelated update")
	}

	snap = s.Apply(Update{ClearRoute: true})
	if snap.Route != nil {
		t.Errorf("Route = %+v, want nil after clear", snap.Route)
	}
}

func TestApplyBumpsVersion(t *testing.T) {
	s := NewState(Camera{})
	v0 := s.Snapshot().Version

	cam := Camera{Zoom: 5}
	snap := s.Apply(Update{Camera: &cam})
	if snap.Version != v0+1 {
		t.Errorf("Version = %d, want %d", snap.Version, v0+1)
	}
}

func TestApplyClampsCamera(t *testing.T) {
	s := NewState(Camera{})

	cam := Camera{Zoom: 99, Pitch: 99}
	snap := s.Apply(Update{Camera: &cam})
	if snap.Camera.Zoom != MaxZoom || snap.Camera.Pitch != MaxPitch {
		t.Errorf("camera not clamped: %+v", snap.Camera)
	}
}
