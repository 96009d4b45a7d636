package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists session carts.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	// Save writes the cart and refreshes its expiry.
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

const keyPrefix = "cart:"

// RedisStore keeps carts as JSON values with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Cart, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+c.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryStore keeps carts in process.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
	exp   map[string]time.Time
	ttl   time.Duration
	Now   func() time.Time
}

// NewMemoryStore constructs an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}, exp: map[string]time.Time{}, ttl: ttl}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[id]
	exp := s.exp[id]
	s.mu.RUnlock()
	if !ok || (s.ttl > 0 && !s.now().Before(exp)) {
		return nil, ErrNotFound
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.ID] = data
	s.exp[c.ID] = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[id]; !ok {
		return ErrNotFound
	}
	delete(s.carts, id)
	delete(s.exp, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
