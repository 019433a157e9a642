package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mirrorhq/infrascene/internal/geo"
)

const airportsDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type":"Feature","properties":{"id":1,"name":"Hawthorne Municipal Airport"},
		 "geometry":{"type":"Polygon","coordinates":[[[-118.33,33.92],[-118.32,33.92],[-118.32,33.93],[-118.33,33.92]]]}},
		{"type":"Feature","properties":{"id":2,"name":"LAX International Airport"},
		 "geometry":{"type":"Polygon","coordinates":[[[-118.43,33.94],[-118.40,33.94],[-118.40,33.95],[-118.43,33.94]]]}}
	]
}`

const portsDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type":"Feature","properties":{"id":10,"name":"Port of Long Beach","subtype":"quay"},
		 "geometry":{"type":"Polygon","coordinates":[[[-118.21,33.75],[-118.20,33.75],[-118.20,33.76],[-118.21,33.75]]]}}
	]
}`

func testBackend(failWarehouses bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/airports", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(airportsDoc))
	})
	mux.HandleFunc("/api/ports", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(portsDoc))
	})
	mux.HandleFunc("/api/warehouses", func(w http.ResponseWriter, r *http.Request) {
		if failWarehouses {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})
	return httptest.NewServer(mux)
}

func TestLoadAllFailIndependence(t *testing.T) {
	srv := testBackend(true)
	defer srv.Close()

	store := NewStore()
	store.LoadAll(context.Background(), srv.Client(), srv.URL, "")

	if store.Status(geo.CategoryAirport) != StatusReady {
		t.Errorf("airports status = %v, want ready", store.Status(geo.CategoryAirport))
	}
	if store.Status(geo.CategoryPort) != StatusReady {
		t.Errorf("ports status = %v, want ready", store.Status(geo.CategoryPort))
	}
	if store.Status(geo.CategoryWarehouse) != StatusFailed {
		t.Errorf("warehouses status = %v, want failed", store.Status(geo.CategoryWarehouse))
	}

	fc, ok := store.Collection(geo.CategoryAirport)
	if !ok || len(fc.Features) != 2 {
		t.Errorf("airports collection = %v, %v", fc, ok)
	}
	if _, ok := store.Collection(geo.CategoryWarehouse); ok {
		t.Error("failed category must not expose a collection")
	}
}

func TestLoadCacheFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouses.geojson")
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"id":100,"name":"Vernon Distribution Center"},"geometry":{"type":"Point","coordinates":[-118.23,34.0]}}]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	srv := testBackend(true)
	defer srv.Close()

	store := NewStore()
	store.LoadAll(context.Background(), srv.Client(), srv.URL, dir)

	if store.Status(geo.CategoryWarehouse) != StatusReady {
		t.Fatalf("warehouses status = %v, want ready from cache", store.Status(geo.CategoryWarehouse))
	}
	fc, _ := store.Collection(geo.CategoryWarehouse)
	if len(fc.Features) != 1 || fc.Features[0].Properties.Name() != "Vernon Distribution Center" {
		t.Errorf("cached collection = %+v", fc)
	}
}

func TestFetchUnreachable(t *testing.T) {
	client := &http.Client{Timeout: 200 * time.Millisecond}
	if _, err := Fetch(context.Background(), client, "http://127.0.0.1:1", geo.CategoryAirport); err == nil {
		t.Error("expected error for unreachable backend")
	}
}

func TestFindByName(t *testing.T) {
	srv := testBackend(false)
	defer srv.Close()

	store := NewStore()
	store.LoadAll(context.Background(), srv.Client(), srv.URL, "")

	// Case-insensitive substring match.
	f, ok := store.FindByName(geo.CategoryAirport, "lax")
	if !ok || f.Properties.ID() != "2" {
		t.Errorf("FindByName(lax) = %v, %v", f, ok)
	}

	// First match in collection order.
	f, ok = store.FindByName(geo.CategoryAirport, "Airport")
	if !ok || f.Properties.ID() != "1" {
		t.Errorf("FindByName(Airport) = %v, %v", f, ok)
	}

	if _, ok := store.FindByName(geo.CategoryAirport, "zzz"); ok {
		t.Error("expected no match")
	}
	if _, ok := store.FindByName(geo.CategoryAirport, ""); ok {
		t.Error("empty query must not match")
	}
}

func TestNearest(t *testing.T) {
	srv := testBackend(false)
	defer srv.Close()

	store := NewStore()
	store.LoadAll(context.Background(), srv.Client(), srv.URL, "")

	// Downtown LA is far from LAX but closer to Hawthorne than nothing:
	// query next to the LAX polygon should pick LAX.
	f, dist, ok := store.Nearest(geo.CategoryAirport, geo.LonLat{Lon: -118.42, Lat: 33.945})
	if !ok {
		t.Fatal("expected a nearest feature")
	}
	if f.Properties.ID() != "2" {
		t.Errorf("nearest = %s, want LAX (2)", f.Properties.ID())
	}
	if dist < 0 || dist > 5 {
		t.Errorf("distance = %v km", dist)
	}

	if _, _, ok := store.Nearest(geo.CategoryWarehouse, geo.LonLat{}); ok {
		t.Error("empty category must report no result")
	}
}
