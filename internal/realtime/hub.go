// Package realtime pushes board change notifications to connected browsers
// over websockets.
package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is the message sent to clients.
type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity,omitempty"`
	Action string `json:"action,omitempty"`
	ID     string `json:"id,omitempty"`
}

type client struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (cl *client) send(v interface{}) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()

	if err := cl.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return cl.conn.WriteJSON(v)
}

func (cl *client) ping() error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()

	return cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub tracks board subscribers.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub accepting upgrades from the given origins. Requests
// without an Origin header, such as those from non-browser clients, are
// always accepted.
func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn}
	h.register(cl)
	defer h.unregister(cl)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := cl.send(Event{Type: "connected"}); err != nil {
		log.Printf("[ws] failed to send welcome message: %v", err)
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
				if err := cl.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] connection error: %v", err)
			}
			return
		}
	}
}

// BoardChanged broadcasts a board_changed event.
func (h *Hub) BoardChanged(entity, action, id string) {
	h.Publish(Event{Type: "board_changed", Entity: entity, Action: action, ID: id})
}

// Publish sends event to every client. Clients that fail to receive it are
// dropped.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.send(event); err != nil {
			log.Printf("[ws] dropping client after failed send: %v", err)
			h.unregister(cl)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()

	if ok {
		cl.conn.Close()
	}
}
