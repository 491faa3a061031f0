// Package ws pushes task events to the websocket connections of their owner.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"todo-app/common"
)

var wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "todo_ws_connections",
	Help: "Open websocket connections.",
})

type Client struct {
	Conn   *common.WSConn
	UserID int
	Send   chan []byte
}

type delivery struct {
	userID int
	data   []byte
}

// Hub keeps every open connection per user. A user may have several.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*Client]struct{}

	Register   chan *Client
	Unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[int]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan delivery, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and deliveries until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.Send)
				}
			}
			h.clients = make(map[int]map[*Client]struct{})
			h.mu.Unlock()
			wsConnections.Set(0)
			return
		case client := <-h.Register:
			h.mu.Lock()
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			wsConnections.Inc()
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for c := range h.clients[d.userID] {
				select {
				case c.Send <- d.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.log.Warn("Dropping slow websocket client", zap.Int("user_id", c.UserID))
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
	wsConnections.Dec()
}

// Send queues msg for every connection of userID. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Send(userID int, msg common.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to encode websocket message", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- delivery{userID: userID, data: data}:
	default:
		h.log.Warn("Websocket queue full, message dropped", zap.Int("user_id", userID))
	}
}

// Connected returns the number of open connections of userID.
func (h *Hub) Connected(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
