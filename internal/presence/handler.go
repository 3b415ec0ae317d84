package presence

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"codepair/realtime/internal/auth"
	"codepair/realtime/internal/metrics"
)

// Handler upgrades presence connections. Every connection must carry a
// valid token; identity is established before the upgrade and attached
// to all events the client produces.
type Handler struct {
	hub      *Hub
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier *auth.Verifier, allowedOrigin string) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("presence: upgrade failed for user %s: %v", identity.SubjectID, err)
		return
	}

	c := newClient(identity, ws)
	go c.writePump()
	h.readPump(c)

	for name := range c.rooms {
		h.hub.Leave(name, c)
	}
	c.close()
	ws.Close()
}

func (h *Handler) readPump(c *client) {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			metrics.DroppedPayloads.Inc()
			log.Printf("presence: malformed message from user %s: %v", c.identity.SubjectID, err)
			continue
		}
		h.handle(c, msg)
	}
}

func (h *Handler) handle(c *client, msg Message) {
	if msg.Room == "" {
		metrics.DroppedPayloads.Inc()
		log.Printf("presence: %s without room from user %s", msg.Type, c.identity.SubjectID)
		return
	}
	switch msg.Type {
	case TypeJoin:
		if h.hub.Join(msg.Room, c) {
			c.rooms[msg.Room] = struct{}{}
		}
	case TypeLeave:
		if h.hub.Leave(msg.Room, c) {
			delete(c.rooms, msg.Room)
		}
	case TypeBroadcast:
		if !h.hub.Broadcast(msg.Room, c, msg.Payload) {
			metrics.DroppedPayloads.Inc()
			log.Printf("presence: broadcast to %s from non-member %s", msg.Room, c.identity.SubjectID)
		}
	default:
		metrics.DroppedPayloads.Inc()
		log.Printf("presence: unknown message type %q from user %s", msg.Type, c.identity.SubjectID)
	}
}
