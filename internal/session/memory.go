package session

import (
	"context"
	"sync"

	"github.com/quartzlabs/turnstile/internal/chat"
)

// MemoryStore keeps session history in process memory. Used when no redis
// address is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]chat.Message
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]chat.Message)}
}

// Append adds messages to the session's history.
func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], msgs...)
	return nil
}

// History returns the session's messages in append order.
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Clear removes the session and its history.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
