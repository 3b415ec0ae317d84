package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process SessionStore for tests and local
// development.
type MemoryStore struct {
	mu    sync.Mutex
	texts map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{texts: make(map[string]string)}
}

func (s *MemoryStore) LoadText(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[sessionID]
	return text, ok, nil
}

func (s *MemoryStore) SaveText(_ context.Context, sessionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[sessionID] = text
	return nil
}
