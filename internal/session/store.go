// Package session keeps the bearer token between requests. A browser session is
// identified by an opaque cookie; the token itself never leaves the server.
package session

import (
	"context"
	"errors"
	"time"

	"smartexpense/internal/cache"
)

var ErrNotFound = errors.New("session not found")

// Session is one token slot. Token is empty when logged out; Flash carries a
// single notice to the next rendered page.
type Session struct {
	ID        string
	Token     string
	Flash     string
	ExpiresAt time.Time
}

// Store persists sessions by id. Load returns ErrNotFound for unknown or expired ids.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in a bounded LRU. Sessions are lost on restart.
type MemoryStore struct {
	cache *cache.LRUCache[Session]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.NewLRUCache[Session](maxSessions, ttl)}
}

// Cache exposes the backing LRU so a cache.Manager can sweep it.
func (m *MemoryStore) Cache() *cache.LRUCache[Session] {
	return m.cache
}

func (m *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.ExpiresAt.IsZero() {
		m.cache.Set(s.ID, s)
		return nil
	}
	m.cache.SetUntil(s.ID, s, s.ExpiresAt)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}
