// Package geo handles geographic data structures and coordinate math.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category identifies one of the three infrastructure datasets.
type Category string

const (
	CategoryAirport   Category = "airport"
	CategoryPort      Category = "port"
	CategoryWarehouse Category = "warehouse"
)

// Categories returns all known categories in their canonical order.
func Categories() []Category {
	return []Category{CategoryAirport, CategoryPort, CategoryWarehouse}
}

// ParseCategory normalizes a user or agent supplied category name.
// Accepts singular and plural forms in any case.
func ParseCategory(s string) (Category, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "airport":
		return CategoryAirport, true
	case "port":
		return CategoryPort, true
	case "warehouse":
		return CategoryWarehouse, true
	}
	return "", false
}

// LonLat is a WGS84 coordinate pair.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// FeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a single geographic feature with geometry and properties.
type Feature struct {
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
}

// Properties is the free-form attribute mapping of a feature.
type Properties map[string]interface{}

// ID returns the stable feature identifier as a string.
// Backends emit both numeric and string ids.
func (p Properties) ID() string {
	switch v := p["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// Name returns the feature name or an empty string.
func (p Properties) Name() string {
	s, _ := p["name"].(string)
	return s
}

// Class returns the airport class tag or an empty string.
func (p Properties) Class() string {
	s, _ := p["class"].(string)
	return s
}

// Subtype returns the subtype tag or an empty string.
func (p Properties) Subtype() string {
	s, _ := p["subtype"].(string)
	return s
}

// Height returns the explicit height in meters, 0 if absent.
func (p Properties) Height() float64 {
	return p.number("height")
}

// NumFloors returns the floor count, 0 if absent.
func (p Properties) NumFloors() float64 {
	return p.number("num_floors")
}

func (p Properties) number(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Geometry is a GeoJSON geometry normalized to a list of coordinate
// rings. Point geometries become a single one-coordinate ring and all
// polygons of a MultiPolygon are flattened into one ring list. The raw
// document is kept so collections serve back out unchanged.
type Geometry struct {
	Type  string
	Rings [][][]float64

	raw json.RawMessage
}

// UnmarshalJSON decodes the geometry and normalizes its coordinates.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var head struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	g.Type = head.Type
	g.raw = append(json.RawMessage(nil), data...)
	g.Rings = nil

	if len(head.Coordinates) == 0 {
		return nil
	}

	switch head.Type {
	case "Point":
		var pt []float64
		if err := json.Unmarshal(head.Coordinates, &pt); err != nil {
			return err
		}
		g.Rings = [][][]float64{{pt}}
	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(head.Coordinates, &line); err != nil {
			return err
		}
		g.Rings = [][][]float64{line}
	case "Polygon":
		if err := json.Unmarshal(head.Coordinates, &g.Rings); err != nil {
			return err
		}
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(head.Coordinates, &polys); err != nil {
			return err
		}
		for _, p := range polys {
			g.Rings = append(g.Rings, p...)
		}
	default:
		return fmt.Errorf("unsupported geometry type %q", head.Type)
	}

	return nil
}

// MarshalJSON emits the original document when available.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.raw != nil {
		return g.raw, nil
	}

	out := struct {
		Type        string      `json:"type"`
		Coordinates interface{} `json:"coordinates"`
	}{Type: g.Type}

	switch g.Type {
	case "Point":
		if len(g.Rings) > 0 && len(g.Rings[0]) > 0 {
			out.Coordinates = g.Rings[0][0]
		}
	case "LineString":
		if len(g.Rings) > 0 {
			out.Coordinates = g.Rings[0]
		}
	default:
		out.Coordinates = g.Rings
	}

	return json.Marshal(out)
}

// FirstCoordinate returns the first coordinate of the first ring.
func (g *Geometry) FirstCoordinate() (LonLat, bool) {
	if len(g.Rings) == 0 || len(g.Rings[0]) == 0 || len(g.Rings[0][0]) < 2 {
		return LonLat{}, false
	}
	c := g.Rings[0][0]
	return LonLat{Lon: c[0], Lat: c[1]}, true
}

// Bounds computes the minimum bounding box over all rings.
func (g *Geometry) Bounds() (Bounds, bool) {
	found := false
	var b Bounds
	for _, ring := range g.Rings {
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			if !found {
				b = Bounds{MinLon: c[0], MinLat: c[1], MaxLon: c[0], MaxLat: c[1]}
				found = true
				continue
			}
			if c[0] < b.MinLon {
				b.MinLon = c[0]
			}
			if c[0] > b.MaxLon {
				b.MaxLon = c[0]
			}
			if c[1] < b.MinLat {
				b.MinLat = c[1]
			}
			if c[1] > b.MaxLat {
				b.MaxLat = c[1]
			}
		}
	}
	return b, found
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}
