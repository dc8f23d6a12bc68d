package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const redisKey = "stockboard:settings"

// ErrNotStored reports that no settings have been saved yet.
var ErrNotStored = errors.New("settings: not stored")

// Store loads and saves the settings object.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// RedisStore keeps settings as JSON under one key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load returns ErrNotStored when the key is missing.
func (r *RedisStore) Load(ctx context.Context) (Settings, error) {
	raw, err := r.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Settings{}, ErrNotStored
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	// Unset fields fall back to the defaults.
	s := Defaults()
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: decode: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := r.client.Set(ctx, redisKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

// MemoryStore is a process-local store.
type MemoryStore struct {
	mu    sync.RWMutex
	saved *Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.saved == nil {
		return Settings{}, ErrNotStored
	}
	return *m.saved, nil
}

func (m *MemoryStore) Save(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &s
	return nil
}
