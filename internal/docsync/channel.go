// Package docsync relays document updates between WebSocket connections
// and the shared document they are attached to. Each connection gets a
// full-state snapshot on join, then exchanges incremental update and
// awareness messages.
package docsync

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"codepair/realtime/internal/auth"
	"codepair/realtime/internal/doc"
	"codepair/realtime/internal/metrics"
	"codepair/realtime/internal/rbac"
)

// Message types on the document sync wire.
const (
	// Server to client: full state on join.
	TypeSnapshot = "snapshot"
	// Client to server: incremental document update.
	TypeUpdate = "update"
	// Server to client: another connection's update.
	TypeChange = "change"
	// Both directions: ephemeral cursor/selection state. Relayed, never
	// merged, never persisted.
	TypeAwareness = "awareness"
)

// Message is the envelope for every frame on the sync channel.
type Message struct {
	Type    string          `json:"type"`
	Site    string          `json:"site,omitempty"`
	Ops     []string        `json:"ops,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler accepts routed document sync connections.
type Handler struct {
	registry *doc.Registry
	verifier *auth.Verifier
	// The source authenticated only the presence channel; the document
	// channel gate is opt-in.
	requireAuth bool
	upgrader    websocket.Upgrader
}

func NewHandler(registry *doc.Registry, verifier *auth.Verifier, requireAuth bool, allowedOrigin string) *Handler {
	return &Handler{
		registry:    registry,
		verifier:    verifier,
		requireAuth: requireAuth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

// ServeSession upgrades a routed connection and attaches it to the
// session's shared document.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	canEdit := true
	if h.requireAuth {
		identity, err := h.verifier.Verify(auth.BearerToken(r))
		if err != nil {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}
		canEdit = rbac.Can(rbac.Role(identity.Role), rbac.ActionEdit)
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("docsync %s: upgrade failed: %v", sessionID, err)
		return
	}

	c := newConnection(ws, sessionID, canEdit)
	go c.writePump()

	// Attach and snapshot are atomic, so no update can fall between the
	// snapshot and the first broadcast this connection sees. The idle
	// timer can evict an instance between acquire and attach; attach
	// refuses the stale instance and a fresh acquire gets the live one.
	var (
		document *doc.Document
		snapshot []string
	)
	for {
		document = h.registry.Acquire(sessionID)
		var ok bool
		if snapshot, ok = document.Attach(c); ok {
			break
		}
	}
	c.deliverMessage(&Message{Type: TypeSnapshot, Site: c.id, Ops: snapshot})

	c.readPump(document)

	document.Detach(c)
	c.close()
}

func (c *connection) readPump(document *doc.Document) {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			metrics.DroppedPayloads.Inc()
			log.Printf("docsync %s: dropping undecodable frame: %v", c.sessionID, err)
			continue
		}

		switch msg.Type {
		case TypeUpdate:
			if !c.canEdit {
				metrics.DroppedPayloads.Inc()
				log.Printf("docsync %s: dropping update from read-only connection %s", c.sessionID, c.id)
				continue
			}
			if err := document.Merge(msg.Ops); err != nil {
				metrics.DroppedPayloads.Inc()
				log.Printf("docsync %s: dropping bad update: %v", c.sessionID, err)
				continue
			}
			out, err := json.Marshal(&Message{Type: TypeChange, Site: c.id, Ops: msg.Ops})
			if err != nil {
				log.Printf("docsync %s: marshal change: %v", c.sessionID, err)
				continue
			}
			document.Broadcast(c.id, out)
		case TypeAwareness:
			out, err := json.Marshal(&Message{Type: TypeAwareness, Site: c.id, Payload: msg.Payload})
			if err != nil {
				log.Printf("docsync %s: marshal awareness: %v", c.sessionID, err)
				continue
			}
			document.Broadcast(c.id, out)
		default:
			metrics.DroppedPayloads.Inc()
			log.Printf("docsync %s: dropping frame of unknown type %q", c.sessionID, msg.Type)
		}
	}
}
