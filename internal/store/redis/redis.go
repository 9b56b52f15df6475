// Package redis keeps settings in a single Redis hash so several processes
// share the same preferences.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the hash that holds every setting.
const DefaultKey = "budgetr:settings"

// SettingsStore implements store.SettingsStore on a Redis hash.
type SettingsStore struct {
	client *goredis.Client
	key    string
}

func NewSettingsStore(addr, key string) *SettingsStore {
	rdb := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})
	return NewWithClient(rdb, key)
}

func NewWithClient(client *goredis.Client, key string) *SettingsStore {
	if key == "" {
		key = DefaultKey
	}
	return &SettingsStore{client: client, key: key}
}

// Ping verifies the server is reachable.
func (r *SettingsStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *SettingsStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *SettingsStore) Close() error {
	return r.client.Close()
}
