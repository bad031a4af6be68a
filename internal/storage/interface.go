package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store scoped to a single room instance.
// Values are whole records; every Put is a full overwrite.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Provider hands out the Store for each room instance
type Provider interface {
	// Room returns the store for the given party (room type) and room id
	Room(party, roomID string) Store

	// Close releases backend resources
	Close() error
}

// Pinger is implemented by providers backed by a remote server
type Pinger interface {
	Ping(ctx context.Context) error
}

// GetJSON reads and decodes a JSON record. It returns ErrNotFound when absent.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// PutJSON encodes v as JSON and stores it under key
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}
