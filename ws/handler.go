package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"todo-app/common"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler upgrades authenticated requests. It expects the user id in the
// request context, see middleware.JWTMiddleware.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := common.NewWSConn(w, r)
		if err != nil {
			h.log.Warn("WebSocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			Conn:   conn,
			UserID: userID,
			Send:   make(chan []byte, 256),
		}

		select {
		case h.Register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go h.read(client)
		go h.write(client)
	}
}

func (h *Hub) read(c *Client) {
	defer func() {
		select {
		case h.Unregister <- c:
		case <-h.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read error", zap.Int("user_id", c.UserID), zap.Error(err))
			}
			break
		}
	}
}

func (h *Hub) write(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(common.WSWriteWait))
				return
			}
			if err := c.Conn.WriteMessage(msg); err != nil {
				h.log.Debug("WebSocket write error", zap.Int("user_id", c.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(common.WSWriteWait)); err != nil {
				return
			}
		}
	}
}
