package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/shatterrealms/internal/storage"
)

// Provider is a Redis-backed implementation of storage.Provider
type Provider struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis provider
func New(cfg Config) (*Provider, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis provider with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Provider {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Provider{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (p *Provider) Close() error {
	return p.client.Close()
}

// Ping checks connectivity to the Redis server
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Ensure Provider implements the interface
var (
	_ storage.Provider = (*Provider)(nil)
	_ storage.Pinger   = (*Provider)(nil)
)

// Room returns the store for a room instance
func (p *Provider) Room(party, roomID string) storage.Store {
	return &Storage{
		client: p.client,
		prefix: roomKeyPrefix(p.cfg.KeyPrefix, party, roomID),
	}
}

// Storage is the Redis-backed store of one room instance
type Storage struct {
	client *redis.Client
	prefix string
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put stores the record without expiry; room data is durable
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
