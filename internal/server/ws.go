package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/scene"
)

const wsWriteTimeout = 10 * time.Second

// wsInbound is a renderer-to-server frame. Only camera poses come
// this way, from user drag/zoom.
type wsInbound struct {
	Type   string        `json:"type"`
	Camera *scene.Camera `json:"camera,omitempty"`
}

// HandleWS streams applied scene updates and notices to the renderer
// and accepts camera poses in the other direction.
func (s *ServerContext) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	sub := s.Engine.Subscribe()
	defer s.Engine.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var in wsInbound
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			if in.Type == "camera" && in.Camera != nil {
				s.Engine.SetCamera(*in.Camera)
			}
		}
	}()

	// Send the current scene first so a late joiner is consistent.
	snap := s.Engine.Scene()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(map[string]interface{}{"scene": snap}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
