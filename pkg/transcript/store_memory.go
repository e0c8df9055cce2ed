package transcript

import (
	"context"
	"sync"
)

// MemoryStore keeps transcripts in process memory. Nothing survives exit.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[SessionKey]Transcript
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[SessionKey]Transcript),
	}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, key SessionKey) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.sessions[key]
	if !ok {
		return Transcript{}, nil
	}
	return t.Clone(), nil
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, key SessionKey, user, assistant Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = append(s.sessions[key].Clone(), user, assistant)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[SessionKey]Transcript)
	return nil
}
