package observer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades spectators to websocket and streams hub messages as JSON.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id, messages := h.hub.Register()
	slog.Info("spectator connected", "remote", r.RemoteAddr, "subscriber", id)

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, messages, done)

	h.hub.Unregister(id)
	slog.Info("spectator disconnected", "remote", r.RemoteAddr, "subscriber", id)
}

// readPump discards client frames; it only keeps pong deadlines and detects close.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, messages <-chan Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := conn.Close(); err != nil {
			slog.Debug("failed to close websocket connection", "error", err)
		}
	}()

	for {
		select {
		case msg, ok := <-messages:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set write deadline", "error", err)
			}
			if !ok {
				if err := conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					slog.Debug("write close message failed", "error", err)
				}
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("write json message failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set ping write deadline", "error", err)
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "error", err)
				return
			}

		case <-done:
			return
		}
	}
}
