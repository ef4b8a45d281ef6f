package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/espachat/internal/utils"
)

const keyPrefix = "espachat:session"

func tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", keyPrefix, token)
}

func nameKey(name string) string {
	return fmt.Sprintf("%s:name:%s", keyPrefix, utils.FoldName(name))
}

// RedisStore keeps snapshots in Redis with a TTL on every key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url (redis://host:port/db) and verifies the connection.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	old, err := s.client.Get(ctx, nameKey(snap.Name)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.TxPipeline()
	if old != "" && old != snap.Token {
		pipe.Del(ctx, tokenKey(old))
	}
	pipe.Set(ctx, tokenKey(snap.Token), data, s.ttl)
	pipe.Set(ctx, nameKey(snap.Name), snap.Token, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Restore implements Store.
func (s *RedisStore) Restore(ctx context.Context, token string) (Snapshot, bool, error) {
	data, err := s.client.GetDel(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}

	current, err := s.client.Get(ctx, nameKey(snap.Name)).Result()
	if err == nil && current == token {
		if err := s.client.Del(ctx, nameKey(snap.Name)).Err(); err != nil {
			return Snapshot{}, false, err
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, false, err
	}

	return snap, true, nil
}

// TokenForName implements Store.
func (s *RedisStore) TokenForName(ctx context.Context, name string) (string, bool, error) {
	token, err := s.client.Get(ctx, nameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return token, true, nil
}

// Forget implements Store.
func (s *RedisStore) Forget(ctx context.Context, name string) error {
	token, err := s.client.GetDel(ctx, nameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return s.client.Del(ctx, tokenKey(token)).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
