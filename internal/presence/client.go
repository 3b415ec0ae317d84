package presence

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"codepair/realtime/internal/auth"
)

const sendBufferSize = 64

// client is one presence websocket connection. The rooms set is only
// touched from the connection's read loop, so it needs no lock.
type client struct {
	identity  auth.Identity
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	rooms     map[string]struct{}
}

func newClient(identity auth.Identity, ws *websocket.Conn) *client {
	return &client{
		identity: identity,
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		rooms:    make(map[string]struct{}),
	}
}

// Deliver queues a payload for the write loop. A client that cannot
// keep up is disconnected rather than allowed to stall a room.
func (c *client) Deliver(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("presence: user %s too slow, disconnecting", c.identity.SubjectID)
		c.close()
	}
}

func (c *client) writePump() {
	for {
		select {
		case payload := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
