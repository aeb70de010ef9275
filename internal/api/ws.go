package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/RoyalIcing/datadown-preview/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleLive streams the resolved document over a websocket: one message on
// connect, then one after every change event (source edit, field set,
// mutation, remote-call response).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	changes, cancel := sess.Subscribe()
	defer cancel()

	// Reader only detects close; clients do not send.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() error {
		resolved := s.resolveAndDispatch(sess)
		return conn.WriteJSON(map[string]any{
			"key":      sess.Key(),
			"resolved": resolved.JSON(),
		})
	}
	if err := push(); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-changes:
			if err := push(); err != nil {
				return
			}
		}
	}
}
