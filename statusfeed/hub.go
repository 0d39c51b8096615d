// Package statusfeed pushes sync status to display clients over a
// websocket. New clients receive the latest event of every type first.
package statusfeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/gshock-sync/logger"
)

const writeWait = 100 * time.Millisecond

// Event is one message on the feed
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Hub struct {
	clients map[*websocket.Conn]bool
	last    map[string]Event
	order   []string
	mu      sync.Mutex

	// serializes writes; a websocket connection allows one writer
	send sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		last:    make(map[string]Event),
	}
}

// AddClient sends the latest events to conn and registers it
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.send.Lock()
	defer h.send.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, typ := range h.order {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(h.last[typ]); err != nil {
			logger.Debug("feed", "client %s dropped during catch-up: %v", conn.RemoteAddr(), err)
			conn.Close()
			return
		}
	}
	h.clients[conn] = true
	logger.Debug("feed", "client %s connected", conn.RemoteAddr())
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast records event as the latest of its type and sends it to every
// client. Clients that fail to take it within the write deadline are
// dropped.
func (h *Hub) Broadcast(event Event) {
	h.send.Lock()
	defer h.send.Unlock()

	h.mu.Lock()
	if _, seen := h.last[event.Type]; !seen {
		h.order = append(h.order, event.Type)
	}
	h.last[event.Type] = event
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	var failedClients []*websocket.Conn
	var failedMu sync.Mutex

	for _, conn := range clients {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(event); err != nil {
				failedMu.Lock()
				failedClients = append(failedClients, c)
				failedMu.Unlock()
			}
		}(conn)
	}
	wg.Wait()

	for _, conn := range failedClients {
		logger.Debug("feed", "dropping client %s", conn.RemoteAddr())
		h.RemoveClient(conn)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades requests to websocket clients of h
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("feed", "failed to upgrade connection: %v", err)
			return
		}
		h.AddClient(conn)

		// clients only listen; reading handles control frames and
		// notices when they go away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.RemoveClient(conn)
				return
			}
		}
	}
}
