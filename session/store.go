// Package session keeps the anonymous-visitor state that outlives a single
// request: which cart a session token owns.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store maps session tokens to the ID of the ownerless cart they hold.
type Store interface {
	CartID(ctx context.Context, token string) (uuid.UUID, bool, error)
	SetCartID(ctx context.Context, token string, cartID uuid.UUID) error
	ClearCartID(ctx context.Context, token string) error
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

// ValidToken reports whether a client-supplied token has our format.
func ValidToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

type memoryEntry struct {
	cartID    uuid.UUID
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments
// and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) CartID(_ context.Context, token string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return uuid.Nil, false, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, token)
		return uuid.Nil, false, nil
	}
	return entry.cartID, true, nil
}

func (s *MemoryStore) SetCartID(_ context.Context, token string, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = memoryEntry{cartID: cartID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) ClearCartID(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, token)
	return nil
}
