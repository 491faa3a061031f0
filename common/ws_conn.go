package common

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WSWriteWait = 10 * time.Second
	// clients only send control frames and the occasional close
	wsMaxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS is enforced on the REST routes; the socket is gated by the JWT
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSConn struct {
	*websocket.Conn
}

func NewWSConn(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsMaxMessageSize)
	return &WSConn{conn}, nil
}

// WriteMessage sends data as a text frame with a write deadline.
func (ws *WSConn) WriteMessage(data []byte) error {
	if err := ws.Conn.SetWriteDeadline(time.Now().Add(WSWriteWait)); err != nil {
		return err
	}
	return ws.Conn.WriteMessage(websocket.TextMessage, data)
}
