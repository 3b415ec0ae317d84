package presence

import (
	"sync"

	"codepair/realtime/internal/metrics"
)

// Hub tracks presence rooms. The hub lock only guards the room map;
// membership changes and event fan-out serialize per room, so rooms
// never contend with each other.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

type room struct {
	name    string
	mu      sync.Mutex
	members map[*client]struct{}
	// Set when the last member leaves; the room is about to be dropped
	// from the hub, so joiners must fetch a fresh one.
	closed bool
}

func newRoom(name string) *room {
	return &room{name: name, members: make(map[*client]struct{})}
}

// Join adds a client to a room, creating it on first join, and
// broadcasts a joined event to the other members. Joining a room twice
// is a no-op. Returns false for a duplicate join.
func (h *Hub) Join(name string, c *client) bool {
	for {
		h.mu.Lock()
		rm, ok := h.rooms[name]
		if !ok {
			rm = newRoom(name)
			h.rooms[name] = rm
		}
		h.mu.Unlock()

		rm.mu.Lock()
		if rm.closed {
			rm.mu.Unlock()
			continue
		}
		if _, member := rm.members[c]; member {
			rm.mu.Unlock()
			return false
		}
		rm.members[c] = struct{}{}
		rm.deliverLocked(c, joinedEvent(name, c))
		rm.mu.Unlock()
		metrics.PresenceMembers.Inc()
		return true
	}
}

// Leave removes a client from a room and broadcasts a left event to the
// remaining members. Returns false when the client was not a member.
func (h *Hub) Leave(name string, c *client) bool {
	h.mu.Lock()
	rm, ok := h.rooms[name]
	h.mu.Unlock()
	if !ok {
		return false
	}

	rm.mu.Lock()
	if _, member := rm.members[c]; !member {
		rm.mu.Unlock()
		return false
	}
	delete(rm.members, c)
	rm.deliverLocked(c, leftEvent(name, c))
	empty := len(rm.members) == 0
	if empty {
		rm.closed = true
	}
	rm.mu.Unlock()
	metrics.PresenceMembers.Dec()

	if empty {
		h.mu.Lock()
		if h.rooms[name] == rm {
			delete(h.rooms, name)
		}
		h.mu.Unlock()
	}
	return true
}

// Broadcast relays a custom event from a room member to the other
// members. Returns false when the sender is not a member.
func (h *Hub) Broadcast(name string, c *client, payload []byte) bool {
	h.mu.Lock()
	rm, ok := h.rooms[name]
	h.mu.Unlock()
	if !ok {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, member := rm.members[c]; !member {
		return false
	}
	rm.deliverLocked(c, customEvent(name, c, payload))
	return true
}

// MemberCount reports a room's size; zero for unknown rooms.
func (h *Hub) MemberCount(name string) int {
	h.mu.Lock()
	rm, ok := h.rooms[name]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

// deliverLocked sends a payload to every member except the originator.
// Callers hold rm.mu, which is what gives each recipient events in
// server processing order.
func (rm *room) deliverLocked(from *client, payload []byte) {
	for member := range rm.members {
		if member == from {
			continue
		}
		member.Deliver(payload)
	}
	metrics.PresenceEvents.Inc()
}
