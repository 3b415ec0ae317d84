package presence

import (
	"encoding/json"
	"log"
)

// Client-to-server message types.
const (
	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeBroadcast = "broadcast"
)

// Server-to-client message types.
const (
	TypeJoined = "joined"
	TypeLeft   = "left"
	TypeEvent  = "event"
)

type Message struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	User    *User           `json:"user,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

func joinedEvent(room string, c *client) []byte {
	return encode(Message{
		Type: TypeJoined,
		Room: room,
		User: &User{ID: c.identity.SubjectID, Name: c.identity.DisplayName, Role: c.identity.Role},
	})
}

func leftEvent(room string, c *client) []byte {
	return encode(Message{
		Type: TypeLeft,
		Room: room,
		User: &User{ID: c.identity.SubjectID},
	})
}

func customEvent(room string, c *client, payload []byte) []byte {
	return encode(Message{
		Type:    TypeEvent,
		Room:    room,
		User:    &User{ID: c.identity.SubjectID, Name: c.identity.DisplayName, Role: c.identity.Role},
		Payload: payload,
	})
}

func encode(m Message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		log.Printf("presence: encode %s event: %v", m.Type, err)
	}
	return b
}
