// Package action defines the closed set of map commands the chat agent
// can issue and decodes them from untrusted input payloads.
package action

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mirrorhq/infrascene/internal/geo"
)

// Action is one raw command from the agent: a tool name plus its input
// payload. The payload is untrusted and must be decoded before use.
type Action struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

var (
	// ErrUnsupported marks an unknown tool name.
	ErrUnsupported = errors.New("unsupported action")
	// ErrMalformed marks a payload missing required fields.
	ErrMalformed = errors.New("malformed action input")
)

// Defaults applied to omitted camera fields.
const (
	DefaultZoom       = 14.0
	DefaultPitch      = 50.0
	DefaultBearing    = 0.0
	DefaultDurationMs = 2000

	// Zooms used by feature-targeted and route-targeted moves.
	FeatureZoom = 15.0
	RouteZoom   = 12.0
)

// Command is the decoded, validated form of an Action. The set is
// closed: one variant per tool.
type Command interface {
	isCommand()
}

// FlyTo moves the camera to a location with an animated transition.
type FlyTo struct {
	Longitude  float64
	Latitude   float64
	Zoom       float64
	Pitch      float64
	Bearing    float64
	DurationMs int
}

// Filter replaces the visibility set. Exactly the named categories
// become visible.
type Filter struct {
	Types map[geo.Category]bool
}

// Highlight selects a feature by name within one category.
type Highlight struct {
	Name     string
	Category geo.Category
}

// Route requests a route computation between two locations.
type Route struct {
	Start geo.LonLat
	End   geo.LonLat
}

// Nearest requests the closest feature of a category to a location.
type Nearest struct {
	Location geo.LonLat
	Category geo.Category
}

func (FlyTo) isCommand()     {}
func (Filter) isCommand()    {}
func (Highlight) isCommand() {}
func (Route) isCommand()     {}
func (Nearest) isCommand()   {}

// Decode validates an action and returns its typed command. Unknown
// tools yield ErrUnsupported, missing or mistyped required fields
// ErrMalformed; both leave the caller free to continue with the rest
// of the batch.
func Decode(a Action) (Command, error) {
	switch a.Tool {
	case "fly_to_location":
		return decodeFlyTo(a.Input)
	case "filter_infrastructure":
		return decodeFilter(a.Input)
	case "highlight_feature":
		return decodeHighlight(a.Input)
	case "calculate_route":
		return decodeRoute(a.Input)
	case "find_nearest":
		return decodeNearest(a.Input)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, a.Tool)
}

func decodeFlyTo(in []byte) (Command, error) {
	lon := gjson.GetBytes(in, "longitude")
	lat := gjson.GetBytes(in, "latitude")
	if !lon.Exists() || !lat.Exists() {
		return nil, fmt.Errorf("%w: fly_to_location requires longitude and latitude", ErrMalformed)
	}

	cmd := FlyTo{
		Longitude:  lon.Float(),
		Latitude:   lat.Float(),
		Zoom:       DefaultZoom,
		Pitch:      DefaultPitch,
		Bearing:    DefaultBearing,
		DurationMs: DefaultDurationMs,
	}

	if v := gjson.GetBytes(in, "zoom"); v.Exists() {
		cmd.Zoom = v.Float()
	}
	if v := gjson.GetBytes(in, "pitch"); v.Exists() {
		cmd.Pitch = v.Float()
	}
	if v := gjson.GetBytes(in, "bearing"); v.Exists() {
		cmd.Bearing = v.Float()
	}
	if v := gjson.GetBytes(in, "durationMs"); v.Exists() {
		cmd.DurationMs = int(v.Int())
	}

	return cmd, nil
}

func decodeFilter(in []byte) (Command, error) {
	types := gjson.GetBytes(in, "types")
	if !types.IsArray() {
		return nil, fmt.Errorf("%w: filter_infrastructure requires a types array", ErrMalformed)
	}

	cmd := Filter{Types: make(map[geo.Category]bool)}
	for _, v := range types.Array() {
		if cat, ok := geo.ParseCategory(v.String()); ok {
			cmd.Types[cat] = true
		}
	}

	return cmd, nil
}

func decodeHighlight(in []byte) (Command, error) {
	name := gjson.GetBytes(in, "name")
	typ := gjson.GetBytes(in, "type")
	if !name.Exists() || name.String() == "" || !typ.Exists() {
		return nil, fmt.Errorf("%w: highlight_feature requires name and type", ErrMalformed)
	}

	cat, ok := geo.ParseCategory(typ.String())
	if !ok {
		return nil, fmt.Errorf("%w: unknown infrastructure type %q", ErrMalformed, typ.String())
	}

	return Highlight{Name: name.String(), Category: cat}, nil
}

func decodeRoute(in []byte) (Command, error) {
	start, ok := lonLatField(in, "start")
	if !ok {
		return nil, fmt.Errorf("%w: calculate_route requires a start location", ErrMalformed)
	}
	end, ok := lonLatField(in, "end")
	if !ok {
		return nil, fmt.Errorf("%w: calculate_route requires an end location", ErrMalformed)
	}

	return Route{Start: start, End: end}, nil
}

func decodeNearest(in []byte) (Command, error) {
	loc, ok := lonLatField(in, "location")
	if !ok {
		return nil, fmt.Errorf("%w: find_nearest requires a location", ErrMalformed)
	}

	typ := gjson.GetBytes(in, "infrastructure_type")
	cat, ok := geo.ParseCategory(typ.String())
	if !ok {
		return nil, fmt.Errorf("%w: unknown infrastructure type %q", ErrMalformed, typ.String())
	}

	return Nearest{Location: loc, Category: cat}, nil
}

// lonLatField reads a location descriptor, accepting both the
// longitude/latitude and lon/lat spellings.
func lonLatField(in []byte, key string) (geo.LonLat, bool) {
	v := gjson.GetBytes(in, key)
	if !v.Exists() {
		return geo.LonLat{}, false
	}

	lon := v.Get("longitude")
	if !lon.Exists() {
		lon = v.Get("lon")
	}
	lat := v.Get("latitude")
	if !lat.Exists() {
		lat = v.Get("lat")
	}

	if !lon.Exists() || !lat.Exists() {
		return geo.LonLat{}, false
	}

	return geo.LonLat{Lon: lon.Float(), Lat: lat.Float()}, true
}
