package docsync

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Outbound frames queued per connection before a slow consumer is cut
// off.
const sendBufferSize = 256

// connection is one attached editor. Its id doubles as the CRDT site id
// the client allocates pids under.
type connection struct {
	id        string
	sessionID string
	// False for guest connections on an authenticated channel; their
	// updates are dropped while snapshots and changes still flow.
	canEdit   bool
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, sessionID string, canEdit bool) *connection {
	return &connection{
		id:        uuid.NewString(),
		sessionID: sessionID,
		canEdit:   canEdit,
		ws:        ws,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

func (c *connection) ID() string { return c.id }

// Deliver queues a payload for the write pump. It never blocks; a
// connection that cannot drain its queue is closed.
func (c *connection) Deliver(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("docsync %s: closing slow consumer %s", c.sessionID, c.id)
		c.close()
	}
}

func (c *connection) deliverMessage(msg *Message) {
	out, err := json.Marshal(msg)
	if err != nil {
		log.Printf("docsync %s: marshal %s: %v", c.sessionID, msg.Type, err)
		return
	}
	c.Deliver(out)
}

func (c *connection) writePump() {
	defer c.ws.Close()
	for {
		select {
		case payload := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func originChecker(allowedOrigin string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if allowedOrigin == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}
}
