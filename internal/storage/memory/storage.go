package memory

import (
	"context"
	"sync"

	"github.com/mcoot/shatterrealms/internal/storage"
)

// Provider is an in-memory implementation of storage.Provider.
// Data lives for the lifetime of the process.
type Provider struct {
	mu    sync.RWMutex
	rooms map[roomKey]*Storage
}

type roomKey struct {
	party  string
	roomID string
}

// NewProvider creates a new in-memory provider
func NewProvider() *Provider {
	return &Provider{
		rooms: make(map[roomKey]*Storage),
	}
}

// Ensure Provider implements the interface
var _ storage.Provider = (*Provider)(nil)

// Room returns the store for a room, creating it on first use
func (p *Provider) Room(party, roomID string) storage.Store {
	key := roomKey{party: party, roomID: roomID}

	p.mu.RLock()
	s, ok := p.rooms[key]
	p.mu.RUnlock()
	if ok {
		return s
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.rooms[key]; ok {
		return s
	}
	s = New()
	p.rooms[key] = s
	return s
}

// Close is a no-op for the in-memory provider
func (p *Provider) Close() error {
	return nil
}

// Storage is an in-memory implementation of storage.Store
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates a new in-memory store
func New() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns the number of stored keys
func (s *Storage) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
