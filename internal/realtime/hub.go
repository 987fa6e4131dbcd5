// Package realtime pushes "refresh" events to browsers watching a project.
package realtime

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProjectID string `json:"project_id"`
}

// client serializes writes on one connection; gorilla allows a single
// concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return fn()
}

// Hub tracks websocket clients per project.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint]map[*client]bool
}

// NewHub accepts connections whose Origin is in allowedOrigins.
func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowed[r.Header.Get("Origin")]
			},
		},
		clients: make(map[uint]map[*client]bool),
	}
}

// ClientCount returns the number of open connections for projectID.
func (h *Hub) ClientCount(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// BroadcastRefresh tells every client of projectID to reload its data.
// Clients that cannot be written to are dropped.
func (h *Hub) BroadcastRefresh(projectID uint) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[projectID]))
	for c := range h.clients[projectID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	event := Event{Type: "refresh", Message: "Project data updated", ProjectID: strconv.FormatUint(uint64(projectID), 10)}

	for _, c := range clients {
		err := c.write(func() error { return c.conn.WriteJSON(event) })
		if err != nil {
			logging.Logger.Warnf("Event ID: WS_BROADCAST_FAILED, Description: Failed to broadcast refresh for project %d: %v", projectID, err)
			h.remove(projectID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) add(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*client]bool)
	}
	h.clients[projectID][c] = true
}

func (h *Hub) remove(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[projectID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

// Serve upgrades the request and keeps the connection registered under
// projectID until the client goes away. Access checks happen before Serve.
func (h *Hub) Serve(c *gin.Context, projectID uint) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Logger.Warnf("Event ID: WS_UPGRADE_FAILED, Description: WebSocket upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.add(projectID, cl)

	defer func() {
		h.remove(projectID, cl)
		conn.Close()
		logging.Logger.Debugf("Event ID: WS_CLOSED, Description: WebSocket connection closed for project %d", projectID)
	}()

	welcome := Event{Type: "connected", Message: "WebSocket connection established", ProjectID: strconv.FormatUint(uint64(projectID), 10)}
	if err := cl.write(func() error { return conn.WriteJSON(welcome) }); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := cl.write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Logger.Warnf("Event ID: WS_ERROR, Description: WebSocket error for project %d: %v", projectID, err)
			}
			return
		}
	}
}
