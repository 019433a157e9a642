// Package dataset loads and indexes the infrastructure feature
// collections. Each category loads independently and fail-independently:
// one failed fetch never blocks or invalidates the other two, it only
// marks its own slot as failed so downstream consumers treat the layer
// as empty.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/geo"
)

// Status is the per-category load tri-state.
type Status int

const (
	StatusPending Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "pending"
}

type slot struct {
	status Status
	fc     *geo.FeatureCollection
	index  *Index
	err    error
}

// Store holds the three loaded feature collections.
type Store struct {
	mu    sync.RWMutex
	slots map[geo.Category]*slot
}

// NewStore returns an empty store with all categories pending.
func NewStore() *Store {
	s := &Store{slots: make(map[geo.Category]*slot)}
	for _, cat := range geo.Categories() {
		s.slots[cat] = &slot{}
	}
	return s
}

// Endpoint returns the dataset path segment for a category.
func Endpoint(cat geo.Category) string {
	return string(cat) + "s"
}

// Fetch downloads one collection from the dataset backend.
func Fetch(ctx context.Context, client *http.Client, baseURL string, cat geo.Category) (*geo.FeatureCollection, error) {
	url := strings.TrimSuffix(baseURL, "/") + "/api/" + Endpoint(cat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	var fc geo.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	return &fc, nil
}

// LoadAll fetches every collection concurrently and blocks until all
// three settle. When a fetch fails and cacheDir is set, the locally
// snapshotted copy is tried before the slot is marked failed.
func (s *Store) LoadAll(ctx context.Context, client *http.Client, baseURL, cacheDir string) {
	var wg sync.WaitGroup
	for _, cat := range geo.Categories() {
		wg.Add(1)
		go func(cat geo.Category) {
			defer wg.Done()
			s.loadCategory(ctx, client, baseURL, cacheDir, cat)
		}(cat)
	}
	wg.Wait()
}

func (s *Store) loadCategory(ctx context.Context, client *http.Client, baseURL, cacheDir string, cat geo.Category) {
	s.setStatus(cat, StatusLoading)

	fc, err := Fetch(ctx, client, baseURL, cat)
	if err != nil && cacheDir != "" {
		path := filepath.Join(cacheDir, Endpoint(cat)+".geojson")
		if cached, cacheErr := readCollection(path); cacheErr == nil {
			log.Warn().
				Err(err).
				Str("category", string(cat)).
				Str("path", path).
				Msg("Dataset fetch failed, using cached snapshot")
			fc, err = cached, nil
		}
	}

	if err != nil {
		log.Error().Err(err).Str("category", string(cat)).Msg("Failed to load dataset")
		s.setFailed(cat, err)
		return
	}

	s.Install(cat, fc)
	log.Info().
		Str("category", string(cat)).
		Int("features", len(fc.Features)).
		Msg("Dataset loaded")
}

func readCollection(path string) (*geo.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc geo.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}

	return &fc, nil
}

// Install replaces a category's collection wholesale and rebuilds its
// spatial index.
func (s *Store) Install(cat geo.Category, fc *geo.FeatureCollection) {
	idx := NewIndex(fc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[cat] = &slot{status: StatusReady, fc: fc, index: idx}
}

func (s *Store) setStatus(cat geo.Category, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[cat].status = st
}

func (s *Store) setFailed(cat geo.Category, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[cat] = &slot{status: StatusFailed, err: err}
}

// Status reports the load state of a category.
func (s *Store) Status(cat geo.Category) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl, ok := s.slots[cat]; ok {
		return sl.status
	}
	return StatusPending
}

// Collection returns the loaded collection for a category.
func (s *Store) Collection(cat geo.Category) (*geo.FeatureCollection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[cat]
	if !ok || sl.status != StatusReady {
		return nil, false
	}
	return sl.fc, true
}

// FindByName searches a category by case-insensitive substring match
// over the feature names. The first match in collection order wins.
func (s *Store) FindByName(cat geo.Category, query string) (*geo.Feature, bool) {
	fc, ok := s.Collection(cat)
	if !ok {
		return nil, false
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, false
	}

	for i := range fc.Features {
		if strings.Contains(strings.ToLower(fc.Features[i].Properties.Name()), needle) {
			return &fc.Features[i], true
		}
	}

	return nil, false
}

// Nearest returns the closest feature of a category to the given
// coordinate, along with its distance in kilometers.
func (s *Store) Nearest(cat geo.Category, loc geo.LonLat) (*geo.Feature, float64, bool) {
	s.mu.RLock()
	sl, ok := s.slots[cat]
	if !ok || sl.status != StatusReady || sl.index == nil {
		s.mu.RUnlock()
		return nil, 0, false
	}
	idx := sl.index
	s.mu.RUnlock()

	f, ok := idx.Nearest(loc)
	if !ok {
		return nil, 0, false
	}

	pos, ok := f.Geometry.FirstCoordinate()
	if !ok {
		return f, 0, true
	}

	return f, geo.DistanceKm(loc, pos), true
}
