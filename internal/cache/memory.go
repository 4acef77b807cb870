package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

type memoryEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

// Memory is the in-process IdentityCache used when no redis is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	byUser  map[uuid.UUID]map[string]struct{}
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		byUser:  make(map[uuid.UUID]map[string]struct{}),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (domain.Identity, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return domain.Identity{}, ErrMiss
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		m.remove(key)
		m.mu.Unlock()
		return domain.Identity{}, ErrMiss
	}

	return entry.identity, nil
}

func (m *Memory) Set(_ context.Context, key string, identity domain.Identity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)
	m.entries[key] = memoryEntry{
		identity:  identity,
		expiresAt: m.now().Add(ttl),
	}

	userID := identity.Profile.ID
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[string]struct{})
	}
	m.byUser[userID][key] = struct{}{}

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)

	return nil
}

func (m *Memory) DeleteUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.byUser[userID] {
		delete(m.entries, key)
	}
	delete(m.byUser, userID)

	return nil
}

// remove must be called with mu held.
func (m *Memory) remove(key string) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)

	userID := entry.identity.Profile.ID
	if keys := m.byUser[userID]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byUser, userID)
		}
	}
}
