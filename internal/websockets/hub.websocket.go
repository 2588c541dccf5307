package websockets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
)

const SLOW_CLIENT_TIMEOUT = 5 * time.Second

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, SEND_CHANNEL_SIZE),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			m.log.Function("register").Debug("Client registered", "clientID", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mutex.Unlock()
			m.log.Function("unregister").Debug("Client unregistered", "clientID", client.ID, "userID", client.UserID)

		case message := <-h.broadcast:
			h.deliver(m, message, func(*Client) bool { return true })
		}
	}
}

// deliver hands message to every authenticated client accepted by match.
// Clients whose buffer stays full are disconnected.
func (h *Hub) deliver(m *Manager, message Message, match func(*Client) bool) int {
	log := m.log.Function("deliver")

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.Status != STATUS_AUTHENTICATED || !match(client) {
			continue
		}

		select {
		case client.send <- message:
			sent++
		default:
			go func(c *Client, msg Message) {
				// send may be closed by an unregister while waiting
				defer func() { _ = recover() }()
				select {
				case c.send <- msg:
				case <-time.After(SLOW_CLIENT_TIMEOUT):
					log.Warn("Client too slow, disconnecting", "clientID", c.ID, "userID", c.UserID)
					h.unregister <- c
				}
			}(client, message)
		}
	}

	return sent
}

func (m *Manager) SendMessageToUser(userID uuid.UUID, message Message) {
	sent := m.hub.deliver(m, message, func(c *Client) bool { return c.UserID == userID })
	if sent == 0 {
		m.log.Function("SendMessageToUser").Debug("No connections found for user", "userID", userID)
	}
}
