package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"playpass/pkg/sentinel"
)

const identityKeyPrefix = "identity:"

// RedisStore persists identity records as JSON values keyed by the derived
// identity key. SETNX makes the first registration the only write.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal identity %s: %w", record.Key, err)
	}
	ok, err := s.client.SetNX(ctx, identityKeyPrefix+record.Key, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("save identity %s: %w", record.Key, err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) FindByKey(ctx context.Context, key string) (Record, error) {
	payload, err := s.client.Get(ctx, identityKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find identity %s: %w", key, err)
	}
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return Record{}, fmt.Errorf("decode identity %s: %w", key, err)
	}
	return record, nil
}
