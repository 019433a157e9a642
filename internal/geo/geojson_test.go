package geo

import (
	"encoding/json"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"airport", CategoryAirport, true},
		{"airports", CategoryAirport, true},
		{"Ports", CategoryPort, true},
		{" WAREHOUSES ", CategoryWarehouse, true},
		{"harbor", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := ParseCategory(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestGeometryPolygon(t *testing.T) {
	raw := []byte(`{"type":"Polygon","coordinates":[[[-118.4,33.94],[-118.39,33.94],[-118.39,33.95],[-118.4,33.94]]]}`)

	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if g.Type != "Polygon" {
		t.Errorf("Type = %q, want Polygon", g.Type)
	}
	if len(g.Rings) != 1 || len(g.Rings[0]) != 4 {
		t.Fatalf("Rings = %v, want one ring of four coordinates", g.Rings)
	}

	first, ok := g.FirstCoordinate()
	if !ok || first.Lon != -118.4 || first.Lat != 33.94 {
		t.Errorf("FirstCoordinate = %v, %v", first, ok)
	}

	// Serving back out must reproduce the original document.
	out, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("marshal = %s, want %s", out, raw)
	}
}

func TestGeometryMultiPolygonFlattens(t *testing.T) {
	raw := []byte(`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}`)

	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(g.Rings) != 2 {
		t.Fatalf("Rings count = %d, want 2", len(g.Rings))
	}

	b, ok := g.Bounds()
	if !ok {
		t.Fatal("Bounds reported no coordinates")
	}
	if b.MinLon != 0 || b.MaxLon != 6 || b.MinLat != 0 || b.MaxLat != 6 {
		t.Errorf("Bounds = %+v", b)
	}
}

func TestGeometryPoint(t *testing.T) {
	var g Geometry
	if err := json.Unmarshal([]byte(`{"type":"Point","coordinates":[-118.2,33.75]}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	first, ok := g.FirstCoordinate()
	if !ok || first.Lon != -118.2 || first.Lat != 33.75 {
		t.Errorf("FirstCoordinate = %v, %v", first, ok)
	}
}

func TestGeometryUnknownType(t *testing.T) {
	var g Geometry
	if err := json.Unmarshal([]byte(`{"type":"GeometryCollection","coordinates":[1]}`), &g); err == nil {
		t.Error("expected error for unsupported geometry type")
	}
}

func TestPropertiesID(t *testing.T) {
	cases := []struct {
		props Properties
		want  string
	}{
		{Properties{"id": "abc-1"}, "abc-1"},
		{Properties{"id": float64(12345)}, "12345"},
		{Properties{"id": json.Number("77")}, "77"},
		{Properties{}, ""},
	}

	for _, c := range cases {
		if got := c.props.ID(); got != c.want {
			t.Errorf("ID() = %q, want %q", got, c.want)
		}
	}
}

func TestPropertiesNumbers(t *testing.T) {
	p := Properties{"height": float64(12), "num_floors": float64(3)}
	if p.Height() != 12 {
		t.Errorf("Height = %v", p.Height())
	}
	if p.NumFloors() != 3 {
		t.Errorf("NumFloors = %v", p.NumFloors())
	}

	empty := Properties{}
	if empty.Height() != 0 || empty.NumFloors() != 0 {
		t.Error("absent numbers should be zero")
	}
}
