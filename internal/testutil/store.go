package testutil

import (
	"context"
	"sync"

	"github.com/mcoot/shatterrealms/internal/storage"
)

// FailingStore wraps a store and fails every write while a put error is set
type FailingStore struct {
	storage.Store

	mu     sync.Mutex
	putErr error
}

// NewFailingStore wraps inner
func NewFailingStore(inner storage.Store) *FailingStore {
	return &FailingStore{Store: inner}
}

var _ storage.Store = (*FailingStore)(nil)

// FailPuts makes writes return err. A nil err restores normal writes.
func (s *FailingStore) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

func (s *FailingStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, key, value)
}
