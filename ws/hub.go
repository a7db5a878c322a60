package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/tcriess/lightspeed-rooms/registry"
)

// Hub tracks the live websocket connections of every room and fans
// broadcasts out to them. There is one hub per process.
type Hub struct {
	registry *registry.Registry

	// room id -> registered clients
	rooms map[string]map[*Client]struct{}

	// mutex for manipulating the membership maps
	sync.RWMutex
}

func NewHub(reg *registry.Registry) *Hub {
	h := &Hub{
		registry: reg,
		rooms:    make(map[string]map[*Client]struct{}),
	}
	reg.SetOccupancyFunc(h.RoomUserCount)
	return h
}

// Connect registers c under roomId and cancels any eviction still pending
// for that room. Cancellation is speculative, it is a no-op on rooms with
// no timer running.
func (h *Hub) Connect(c *Client, roomId string) {
	h.Lock()
	clients, ok := h.rooms[roomId]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[roomId] = clients
	}
	clients[c] = struct{}{}
	h.Unlock()
	h.registry.CancelEviction(roomId)
	log.Printf("info: connection registered in room %s", roomId)
}

// Disconnect removes c from roomId. When the last connection leaves, the
// room's eviction grace period starts. Reports whether the room emptied as
// a result.
func (h *Hub) Disconnect(c *Client, roomId string) bool {
	h.Lock()
	clients, ok := h.rooms[roomId]
	if !ok {
		h.Unlock()
		return false
	}
	delete(clients, c)
	empty := len(clients) == 0
	if empty {
		delete(h.rooms, roomId)
	}
	h.Unlock()
	if empty {
		h.registry.ScheduleEviction(roomId)
		log.Printf("info: room %s is empty, eviction scheduled", roomId)
	}
	return empty
}

// Broadcast marshals payload once and delivers it to every connection
// currently registered in roomId.
func (h *Hub) Broadcast(payload interface{}, roomId string) {
	h.broadcast(payload, roomId, nil)
}

// BroadcastExcept delivers to everyone in roomId apart from excluded. Used
// for typing indicators so the sender does not echo its own keystrokes.
func (h *Hub) BroadcastExcept(payload interface{}, roomId string, excluded *Client) {
	h.broadcast(payload, roomId, excluded)
}

func (h *Hub) broadcast(payload interface{}, roomId string, excluded *Client) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("error: could not marshal broadcast payload: %s", err)
		return
	}
	// deliver to a snapshot of the membership, a slow or dying receiver
	// must not block concurrent connects and disconnects
	h.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomId]))
	for c := range h.rooms[roomId] {
		if c == excluded {
			continue
		}
		clients = append(clients, c)
	}
	h.RUnlock()
	for _, c := range clients {
		if !c.enqueue(data) {
			// treated as already disconnected, its own read loop runs
			// the disconnect path
			log.Printf("info: dropped broadcast to dead connection in room %s", roomId)
		}
	}
}

// RoomUserCount returns the number of live connections in roomId, 0 for
// unknown rooms.
func (h *Hub) RoomUserCount(roomId string) int {
	h.RLock()
	defer h.RUnlock()
	return len(h.rooms[roomId])
}
