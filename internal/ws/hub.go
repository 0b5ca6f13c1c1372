package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// GameHub is the single hub for all sessions.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go GameHub.Run(context.Background())
}

// Hub fans session messages out to the clients watching each session.
type Hub struct {
	rooms      map[string]map[*Client]bool // session token -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.sessionToken]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.sessionToken] = room
	}
	// an owner reconnecting replaces its previous connection
	if !client.spectator {
		for old := range room {
			if !old.spectator && old.playerID == client.playerID {
				log.Printf("[WS] Player %d reconnecting to session %s - closing old connection", client.playerID, client.sessionToken)
				delete(room, old)
				old.close()
			}
		}
	}
	room[client] = true
	size := len(room)
	h.mu.Unlock()

	log.Printf("[WS] Player %d joined session %s (spectator=%v, room_size=%d)", client.playerID, client.sessionToken, client.spectator, size)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.sessionToken]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.sessionToken)
	}
	client.close()
	log.Printf("[WS] Player %d left session %s", client.playerID, client.sessionToken)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for token, room := range h.rooms {
		for client := range room {
			client.close()
		}
		delete(h.rooms, token)
	}
}

// Register adds a client to its session's room. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from its room and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToSession sends a message to every client in a session's room
func (h *Hub) BroadcastToSession(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.broadcastRaw(token, data)
}

func (h *Hub) broadcastRaw(token string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[token] {
		if !client.enqueue(data) {
			log.Printf("[WS] Send buffer full for player %d in session %s, dropping message", client.playerID, token)
		}
	}
}

// CloseRoom disconnects every client of a session after their queued messages are written.
func (h *Hub) CloseRoom(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[token]
	if !ok {
		return
	}
	for client := range room {
		client.close()
	}
	delete(h.rooms, token)
	log.Printf("[WS] Closed room for session %s", token)
}

// RoomSize reports how many clients watch a session.
func (h *Hub) RoomSize(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}
