package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSnapshotStore keeps the serialized routing table in a single Redis
// key. Optional wiring: the cache works without it, persistence only widens
// the outage window a restarted gateway can serve through.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

func NewRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, key: key}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save routing snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("load routing snapshot: %w", err)
	}
	return data, nil
}
