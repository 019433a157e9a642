// Package scene holds the declarative map state consumed by the renderer:
// camera pose, per-category visibility, highlighted feature and route
// overlay. All mutation goes through State.Apply, which commits one
// update atomically so the renderer never observes a torn snapshot.
package scene

import (
	"math"
	"sync"
)

// Camera pose limits.
const (
	MinZoom  = 0
	MaxZoom  = 22
	MinPitch = 0
	MaxPitch = 85
)

// Transition describes an animated camera move.
type Transition struct {
	DurationMs int    `json:"duration_ms"`
	Easing     string `json:"easing,omitempty"`
}

// Camera is the viewer pose. A nil Transition means an instantaneous
// jump, as produced by direct user manipulation.
type Camera struct {
	Longitude  float64     `json:"longitude"`
	Latitude   float64     `json:"latitude"`
	Zoom       float64     `json:"zoom"`
	Pitch      float64     `json:"pitch"`
	Bearing    float64     `json:"bearing"`
	Transition *Transition `json:"transition,omitempty"`
}

// Clamped returns the pose with zoom and pitch forced into their legal
// ranges and the bearing normalized to [-180, 180).
func (c Camera) Clamped() Camera {
	c.Zoom = clamp(c.Zoom, MinZoom, MaxZoom)
	c.Pitch = clamp(c.Pitch, MinPitch, MaxPitch)

	b := math.Mod(c.Bearing+180, 360)
	if b < 0 {
		b += 360
	}
	c.Bearing = b - 180

	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Visibility holds the per-category layer flags. Any combination is
// legal, including all false.
type Visibility struct {
	Airports   bool `json:"airports"`
	Ports      bool `json:"ports"`
	Warehouses bool `json:"warehouses"`
}

// RouteOverlay is the computed route shown on the map. It is set
// atomically on a successful route computation and never partially
// populated.
type RouteOverlay struct {
	Coordinates         [][]float64 `json:"coordinates"`
	DistanceKm          float64     `json:"distance_km"`
	DurationMinutes     float64     `json:"duration_minutes"`
	TrafficDelaySeconds float64     `json:"traffic_delay_seconds"`
}

// Snapshot is one consistent view of the scene. Highlight is a lookup
// key into the loaded collections; an id matching nothing is legal and
// simply renders no highlight.
type Snapshot struct {
	Camera     Camera        `json:"camera"`
	Visibility Visibility    `json:"visibility"`
	Highlight  string        `json:"highlight,omitempty"`
	Route      *RouteOverlay `json:"route,omitempty"`
	Version    uint64        `json:"version"`
}

// Update is one atomic scene mutation. Nil fields leave their slice of
// the state untouched; a pointer to the empty string clears the
// highlight.
type Update struct {
	Camera     *Camera
	Visibility *Visibility
	Highlight  *string
	Route      *RouteOverlay
	ClearRoute bool
}

// State owns the current snapshot. Writes are serialized by the engine
// loop; reads may come from any goroutine.
type State struct {
	mu  sync.RWMutex
	cur Snapshot
}

// NewState returns a state at the given initial camera with every
// layer visible.
func NewState(initial Camera) *State {
	return &State{cur: Snapshot{
		Camera:     initial.Clamped(),
		Visibility: Visibility{Airports: true, Ports: true, Warehouses: true},
	}}
}

// Snapshot returns the current scene.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Apply commits one update atomically and returns the resulting
// snapshot. The version increments on every commit.
func (s *State) Apply(u Update) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Camera != nil {
		s.cur.Camera = u.Camera.Clamped()
	}
	if u.Visibility != nil {
		s.cur.Visibility = *u.Visibility
	}
	if u.Highlight != nil {
		s.cur.Highlight = *u.Highlight
	}
	if u.Route != nil {
		s.cur.Route = u.Route
	} else if u.ClearRoute {
		s.cur.Route = nil
	}

	s.cur.Version++
	return s.cur
}
