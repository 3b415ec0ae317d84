// Package store persists the last-known text of collaboration sessions.
// Session rows themselves are owned by the platform API; this service
// only reads and writes the text column keyed by session id. The live
// in-memory document is always authoritative while a session is active;
// the store is eventually consistent with it.
package store

import "context"

// SessionStore is the durable session store boundary.
type SessionStore interface {
	// LoadText returns the persisted text for a session. The second
	// return value is false when the session has no persisted text.
	LoadText(ctx context.Context, sessionID string) (string, bool, error)
	// SaveText replaces the persisted text for a session.
	SaveText(ctx context.Context, sessionID, text string) error
}
