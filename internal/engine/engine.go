// Package engine serializes all scene mutation onto one dispatcher
// goroutine. Actions from a chat turn execute in strict input order;
// asynchronous lookups run in their own goroutines and post their
// completions back onto the loop, where they are applied read-modify-
// write against the latest scene. Each lookup carries a generation
// number, counted per lookup kind, and a completion older than the
// last applied one of its kind is dropped: a slow request can never
// regress the scene to stale data, while a route and a nearest lookup
// in flight together land independently.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/action"
	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/geo"
	"github.com/mirrorhq/infrascene/internal/lookup"
	"github.com/mirrorhq/infrascene/internal/scene"
)

// DefaultLookupTimeout bounds each lookup call.
const DefaultLookupTimeout = 15 * time.Second

// Event is one frame of the renderer-facing stream: an applied scene
// snapshot or a non-fatal notice.
type Event struct {
	Scene  *scene.Snapshot `json:"scene,omitempty"`
	Notice string          `json:"notice,omitempty"`
}

// Engine owns the scene state and executes actions against it.
type Engine struct {
	store   *dataset.Store
	scene   *scene.State
	gateway lookup.Gateway
	timeout time.Duration

	events chan func()

	// Touched only on the dispatcher goroutine. Route and nearest
	// results land on disjoint parts of the scene, so each kind gets
	// its own generation counter.
	issued  map[action.LookupKind]uint64
	applied map[action.LookupKind]uint64
	subs    map[chan Event]struct{}
}

// New returns an engine over the given store, state and gateway.
func New(store *dataset.Store, st *scene.State, gw lookup.Gateway, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Engine{
		store:   store,
		scene:   st,
		gateway: gw,
		timeout: timeout,
		events:  make(chan func(), 64),
		issued:  make(map[action.LookupKind]uint64),
		applied: make(map[action.LookupKind]uint64),
		subs:    make(map[chan Event]struct{}),
	}
}

// Run processes queued work until the context is canceled. All state
// mutation happens here; there is nothing to lock beyond the scene's
// own snapshot guard.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.events:
			fn()
		}
	}
}

// Scene returns the current scene snapshot.
func (e *Engine) Scene() scene.Snapshot {
	return e.scene.Snapshot()
}

// Dispatch queues one batch of actions for in-order execution. A
// malformed or unsupported action is skipped with a notice; the rest
// of the batch still runs.
func (e *Engine) Dispatch(actions []action.Action) {
	if len(actions) == 0 {
		return
	}
	batch := make([]action.Action, len(actions))
	copy(batch, actions)

	e.events <- func() { e.runBatch(batch) }
}

// SetCamera applies a user-driven pose: instantaneous, no transition.
func (e *Engine) SetCamera(cam scene.Camera) {
	cam.Transition = nil
	e.events <- func() {
		e.apply(scene.Update{Camera: &cam})
	}
}

// ClearRoute removes the route overlay.
func (e *Engine) ClearRoute() {
	e.events <- func() {
		e.apply(scene.Update{ClearRoute: true})
	}
}

// Subscribe registers a renderer-facing event stream. Slow consumers
// drop frames rather than stalling the loop.
func (e *Engine) Subscribe() chan Event {
	ch := make(chan Event, 16)
	e.events <- func() { e.subs[ch] = struct{}{} }
	return ch
}

// Unsubscribe removes and closes a stream.
func (e *Engine) Unsubscribe(ch chan Event) {
	e.events <- func() {
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
}

func (e *Engine) runBatch(batch []action.Action) {
	for _, a := range batch {
		cmd, err := action.Decode(a)
		if err != nil {
			log.Warn().Err(err).Str("tool", a.Tool).Msg("Skipping action")
			e.notify(Event{Notice: err.Error()})
			continue
		}

		out := action.Interpret(cmd, e.store, e.scene.Snapshot())
		if out.Notice != "" {
			log.Debug().Str("tool", a.Tool).Str("notice", out.Notice).Msg("Action produced no state change")
			e.notify(Event{Notice: out.Notice})
		}
		if out.Update != nil {
			e.apply(*out.Update)
		}
		if out.Lookup != nil {
			e.issueLookup(*out.Lookup)
		}
	}
}

func (e *Engine) apply(u scene.Update) {
	snap := e.scene.Apply(u)
	e.notify(Event{Scene: &snap})
}

func (e *Engine) notify(ev Event) {
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Engine) issueLookup(lk action.Lookup) {
	e.issued[lk.Kind]++
	gen := e.issued[lk.Kind]

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		switch lk.Kind {
		case action.LookupRoute:
			e.runRoute(ctx, gen, lk)
		case action.LookupNearest:
			e.runNearest(ctx, gen, lk)
		}
	}()
}

func (e *Engine) runRoute(ctx context.Context, gen uint64, lk action.Lookup) {
	start := lookup.Coords{Longitude: lk.Start.Lon, Latitude: lk.Start.Lat}
	end := lookup.Coords{Longitude: lk.End.Lon, Latitude: lk.End.Lat}

	route, err := e.gateway.ComputeRoute(ctx, start, end)
	if err != nil {
		log.Warn().Err(err).Msg("Route computation failed")
		e.events <- func() { e.notify(Event{Notice: "route computation failed"}) }
		return
	}

	e.events <- func() {
		center, ok := geo.Centroid(route.Coordinates)
		if !ok {
			e.notify(Event{Notice: "route had no coordinates"})
			return
		}

		cam := scene.Camera{
			Longitude:  center.Lon,
			Latitude:   center.Lat,
			Zoom:       action.RouteZoom,
			Pitch:      action.DefaultPitch,
			Bearing:    action.DefaultBearing,
			Transition: &scene.Transition{DurationMs: action.DefaultDurationMs},
		}
		overlay := scene.RouteOverlay{
			Coordinates:         route.Coordinates,
			DistanceKm:          route.DistanceKm,
			DurationMinutes:     route.DurationMinutes,
			TrafficDelaySeconds: route.TrafficDelaySeconds,
		}

		e.complete(action.LookupRoute, gen, scene.Update{Camera: &cam, Route: &overlay})
	}
}

func (e *Engine) runNearest(ctx context.Context, gen uint64, lk action.Lookup) {
	loc := lookup.Coords{Longitude: lk.Location.Lon, Latitude: lk.Location.Lat}

	f, err := e.gateway.FindNearest(ctx, loc, string(lk.Category))
	if err != nil {
		log.Warn().Err(err).Str("category", string(lk.Category)).Msg("Nearest lookup failed")
		e.events <- func() { e.notify(Event{Notice: "nearest " + string(lk.Category) + " lookup failed"}) }
		return
	}

	e.events <- func() {
		id := f.ID
		cam := scene.Camera{
			Longitude:  f.Lon,
			Latitude:   f.Lat,
			Zoom:       action.FeatureZoom,
			Pitch:      action.DefaultPitch,
			Bearing:    action.DefaultBearing,
			Transition: &scene.Transition{DurationMs: action.DefaultDurationMs},
		}

		e.complete(action.LookupNearest, gen, scene.Update{Highlight: &id, Camera: &cam})
	}
}

// complete applies a lookup result unless a newer lookup of the same
// kind already landed.
func (e *Engine) complete(kind action.LookupKind, gen uint64, u scene.Update) {
	if gen <= e.applied[kind] {
		log.Debug().Uint64("gen", gen).Uint64("applied", e.applied[kind]).Msg("Dropping stale lookup result")
		return
	}
	e.applied[kind] = gen
	e.apply(u)
}
