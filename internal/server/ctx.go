package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/mirrorhq/infrascene/internal/chat"
	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/engine"
	"github.com/mirrorhq/infrascene/internal/geo"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Store  *dataset.Store
	Engine *engine.Engine
	Chat   chat.Transport

	minifier *minify.M
	upgrader websocket.Upgrader

	payloadMu sync.Mutex
	payloads  map[geo.Category][]byte
}

// NewServerContext initializes the context. Dataset payloads are
// minified and cached on first request; collections are immutable
// after load so the cache never goes stale within a session.
func NewServerContext(store *dataset.Store, eng *engine.Engine, tr chat.Transport) *ServerContext {
	m := minify.New()
	m.AddFunc("application/json", mjson.Minify)

	return &ServerContext{
		Store:    store,
		Engine:   eng,
		Chat:     tr,
		minifier: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The renderer runs on a different dev origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		payloads: make(map[geo.Category][]byte),
	}
}

// datasetPayload renders a category as GeoJSON with each feature's
// properties enriched with its derived elevation, so the renderer
// needs no height policy of its own.
func (s *ServerContext) datasetPayload(cat geo.Category) ([]byte, bool, error) {
	fc, ok := s.Store.Collection(cat)
	if !ok {
		return nil, false, nil
	}

	s.payloadMu.Lock()
	defer s.payloadMu.Unlock()

	if cached, ok := s.payloads[cat]; ok {
		return cached, true, nil
	}

	out := geo.FeatureCollection{Type: "FeatureCollection", Features: make([]geo.Feature, len(fc.Features))}
	for i := range fc.Features {
		f := fc.Features[i]

		props := make(geo.Properties, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}
		props["elevation"] = geo.FeatureElevation(cat, &f)
		f.Properties = props

		out.Features[i] = f
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, true, err
	}

	minified, err := s.minifier.Bytes("application/json", raw)
	if err != nil {
		// Serve unminified rather than failing the request.
		minified = raw
	}

	s.payloads[cat] = minified
	return minified, true, nil
}
