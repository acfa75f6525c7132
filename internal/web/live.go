package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// EFB apps and the bundled page connect from anywhere on the LAN, so the
// origin check stays open.
var liveUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const liveWriteTimeout = 5 * time.Second

// LiveHandler streams every published fix snapshot as one JSON message per
// websocket frame.
func LiveHandler(fixes *FixBroadcaster) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fixes == nil {
			http.Error(w, "live feed unavailable", http.StatusNotFound)
			return
		}

		conn, err := liveUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			return
		}
		defer conn.Close()

		id, ch := fixes.Subscribe(4)
		defer fixes.Unsubscribe(id)

		// Drain client frames so close and ping frames get processed. Any
		// read error means the peer went away.
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
			case <-done:
				return
			case <-r.Context().Done():
				return
			case snap, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			}
		}
	})
}
