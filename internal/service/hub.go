package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/IlyaM70/JustMessanger/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// WSClient is one live connection. A user with several devices or tabs has
// one WSClient per connection, all in the same group.
type WSClient struct {
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte
}

// WSHub groups live connections by user id and fans events out to a whole
// group. Membership lives only in memory; a restart empties every group.
type WSHub struct {
	clients    map[*WSClient]bool
	groups     map[string]map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
	done       chan struct{}
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		groups:     make(map[string]map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
	}
}

func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			group := h.groups[client.UserID]
			if group == nil {
				group = make(map[*WSClient]bool)
				h.groups[client.UserID] = group
			}
			group[client] = true
			h.mu.Unlock()
			log.Printf("WS: user %s connected (connections: %d)", client.UserID, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.removeFromGroup(client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("WS: user %s disconnected (connections: %d)", client.UserID, len(h.clients))

		case <-h.done:
			return
		}
	}
}

func (h *WSHub) Shutdown() {
	close(h.done)
}

func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// Notify delivers an event to every open connection of one user. A user with
// no connections drops the event; a connection with a full send buffer is
// skipped rather than blocked on.
func (h *WSHub) Notify(userID, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WS: marshal %s payload: %v", event, err)
		return
	}
	data, err := json.Marshal(model.WSEvent{Type: event, Data: raw})
	if err != nil {
		log.Printf("WS: marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.groups[userID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *WSHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize reports the number of open connections for one user.
func (h *WSHub) GroupSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// removeFromGroup must be called with the write lock held.
func (h *WSHub) removeFromGroup(client *WSClient) {
	group := h.groups[client.UserID]
	if group == nil {
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.groups, client.UserID)
	}
}
