package handlers

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are governed by the CORS configuration of the HTTP API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn bounds every hub write with a deadline.
type wsConn struct {
	*websocket.Conn
}

func (c wsConn) WriteJSON(v any) error {
	_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.Conn.WriteJSON(v)
}

// LiveNames handles GET /ws/names. Clients receive a name_created event for
// every newly registered name; anything they send is ignored.
func (h *Handler) LiveNames(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "request_id", chimw.GetReqID(r.Context()), "error", err)
		return
	}

	id := h.hub.Register(wsConn{conn})
	defer h.hub.Unregister(id)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
