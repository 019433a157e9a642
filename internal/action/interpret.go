package action

import (
	"fmt"

	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/geo"
	"github.com/mirrorhq/infrascene/internal/scene"
)

// LookupKind tags the pending asynchronous lookups.
type LookupKind int

const (
	LookupRoute LookupKind = iota
	LookupNearest
)

// Lookup describes a backend call the engine must perform before the
// command's effect can be applied.
type Lookup struct {
	Kind LookupKind

	// Route fields.
	Start geo.LonLat
	End   geo.LonLat

	// Nearest fields.
	Location geo.LonLat
	Category geo.Category
}

// Outcome is the result of interpreting one command: an immediate
// scene update, a pending lookup, or a user-facing notice for a benign
// miss. Fields may be nil/empty independently.
type Outcome struct {
	Update *scene.Update
	Lookup *Lookup
	Notice string
}

// Interpret maps a decoded command against the loaded datasets and the
// current scene to its outcome. It performs no IO and no mutation.
func Interpret(cmd Command, store *dataset.Store, current scene.Snapshot) Outcome {
	switch c := cmd.(type) {
	case FlyTo:
		cam := scene.Camera{
			Longitude:  c.Longitude,
			Latitude:   c.Latitude,
			Zoom:       c.Zoom,
			Pitch:      c.Pitch,
			Bearing:    c.Bearing,
			Transition: &scene.Transition{DurationMs: c.DurationMs},
		}
		return Outcome{Update: &scene.Update{Camera: &cam}}

	case Filter:
		vis := scene.Visibility{
			Airports:   c.Types[geo.CategoryAirport],
			Ports:      c.Types[geo.CategoryPort],
			Warehouses: c.Types[geo.CategoryWarehouse],
		}
		return Outcome{Update: &scene.Update{Visibility: &vis}}

	case Highlight:
		if store.Status(c.Category) != dataset.StatusReady {
			return Outcome{Notice: fmt.Sprintf("%s data is not loaded yet", c.Category)}
		}

		f, ok := store.FindByName(c.Category, c.Name)
		if !ok {
			return Outcome{Notice: fmt.Sprintf("no %s matching %q", c.Category, c.Name)}
		}

		id := f.Properties.ID()
		u := scene.Update{Highlight: &id}

		if pos, ok := f.Geometry.FirstCoordinate(); ok {
			u.Camera = &scene.Camera{
				Longitude:  pos.Lon,
				Latitude:   pos.Lat,
				Zoom:       FeatureZoom,
				Pitch:      DefaultPitch,
				Bearing:    DefaultBearing,
				Transition: &scene.Transition{DurationMs: DefaultDurationMs},
			}
		}

		return Outcome{Update: &u}

	case Route:
		return Outcome{Lookup: &Lookup{Kind: LookupRoute, Start: c.Start, End: c.End}}

	case Nearest:
		return Outcome{Lookup: &Lookup{Kind: LookupNearest, Location: c.Location, Category: c.Category}}
	}

	// Unreachable with the closed command set.
	return Outcome{}
}
