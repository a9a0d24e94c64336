package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/e-learning-backend/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub keeps the open connections of every user. A user may hold several.
type Hub struct {
	clients map[uint]map[*websocket.Conn]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*websocket.Conn]*Client)}
}

// Register adds conn for userID and starts its write pump. The caller runs
// ReadPump on the same connection.
func (h *Hub) Register(userID uint, conn *websocket.Conn) *Client {
	client := &Client{UserID: userID, Conn: conn, Send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]*Client)
	}
	h.clients[userID][conn] = client
	h.mu.Unlock()

	go client.writePump()
	return client
}

func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connections returns how many sockets userID currently holds.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stats reports the number of connected users and open sockets.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := 0
	for _, clients := range h.clients {
		conns += len(clients)
	}
	return map[string]int{"users": len(h.clients), "connections": conns}
}

// NotifyUser queues the event on every connection of the user. Slow
// connections drop the event instead of blocking the caller.
func (h *Hub) NotifyUser(userID uint, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Println("ws marshal event:", err)
		return
	}
	h.SendToUser(userID, data)
}

func (h *Hub) SendToUser(userID uint, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ReadPump discards inbound messages and keeps the connection alive until
// the peer goes away, then unregisters it.
func (h *Hub) ReadPump(client *Client) {
	defer h.Unregister(client.UserID, client.Conn)

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
