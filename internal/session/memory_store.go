package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tgrieger/inkwell/internal/domain"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is an in-process session store with the same TTL semantics
// as the Redis store. Used in tests and single-node development setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Set(_ context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[Key(userID)] = memoryEntry{
		token:     refreshToken,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[Key(userID)]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, Key(userID))
		return "", domain.ErrSessionNotFound
	}
	return entry.token, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, Key(userID))
	return nil
}
