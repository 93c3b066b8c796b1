package chat

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// RoomName derives the chat room shared by two users. The ids are
// ordered so both participants compute the same name.
func RoomName(userOneID, userTwoID uint) string {
	if userOneID > userTwoID {
		userOneID, userTwoID = userTwoID, userOneID
	}
	return fmt.Sprintf("%d_%d", userOneID, userTwoID)
}

// Client is one live websocket connection
type Client struct {
	ID     string
	UserID uint
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// Hub tracks clients and room memberships and fans messages out to
// room subscribers. All state is guarded by a single mutex; the
// expected connection count per process makes finer locking pointless.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client // room name -> client id -> client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, clientID)
	for room, members := range h.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Join subscribes a client to a room
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[client.ID] = client
}

// BroadcastToRoom delivers a payload to every client subscribed to the
// room. Clients whose send buffer is full are skipped rather than
// blocking the broadcast.
func (h *Hub) BroadcastToRoom(room string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[room] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// Shutdown closes every client connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)
}
