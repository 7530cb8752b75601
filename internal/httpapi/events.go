package httpapi

import (
	"net/http"
	"time"
)

// handleTaskEvents streams task lifecycle events over a websocket. The feed
// is fire-and-forget: events emitted while no client is connected are not
// replayed.
func (s *Server) handleTaskEvents(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "event broker not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	// Drain the client side so close frames and pings are processed; any
	// read error ends the stream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}
