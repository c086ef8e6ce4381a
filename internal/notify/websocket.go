package notify

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"todolist/backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 512
)

var upgrader = websocket.Upgrader{ //nolint:gochecknoglobals
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Serve upgrades the request and streams updates to clientID until either
// side goes away. The client is removed from the hub on return.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, clientID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := h.Add(clientID)
	done := make(chan struct{})
	go h.writeLoop(conn, client, done)

	// Clients only ever send control frames; reading keeps pongs and the
	// close handshake flowing.
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("update client read", "module", "notify", "action", "read", "resource", "client", "result", "failed", "client_id", clientID, "error", err)
			}
			break
		}
	}

	h.Remove(clientID)
	<-done
	return nil
}

func (h *Hub) writeLoop(conn *websocket.Conn, client *Client, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case payload, ok := <-client.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("update send failed", "module", "notify", "action", "send", "resource", "client", "result", "failed", "client_id", client.ID(), "error", err)
				h.Remove(client.ID())
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Remove(client.ID())
				return
			}
		}
	}
}
