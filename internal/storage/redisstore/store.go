// Package redisstore provides a Redis-backed implementation of the storage.Store interface.
package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/sharethebill/internal/storage"
)

// Ensure RedisStore implements storage.Store
var _ storage.Store = (*RedisStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements storage.Store with plain strings and sets.
// Conditional writes use WATCH/MULTI so a concurrent writer aborts the
// transaction instead of being overwritten.
type RedisStore struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, opts Options) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Close the client if ping fails
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)
	return &RedisStore{rdb: rdb}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	return nil
}

// Get returns the value stored at key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value at key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap stores next only if the current value equals prev.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) error {
	return s.watch(ctx, key, prev, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, next, 0)
	})
}

// CompareAndDelete removes key only if the current value equals prev.
func (s *RedisStore) CompareAndDelete(ctx context.Context, key string, prev []byte) error {
	if prev == nil {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return s.watch(ctx, key, prev, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
	})
}

// watch runs write inside MULTI/EXEC if key still holds prev.
func (s *RedisStore) watch(ctx context.Context, key string, prev []byte, write func(redis.Pipeliner)) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}

		switch {
		case prev == nil && exists:
			return fmt.Errorf("%w: %s already exists", storage.ErrConflict, key)
		case prev != nil && !exists:
			return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		case prev != nil && !bytes.Equal(current, prev):
			return fmt.Errorf("%w: %s", storage.ErrConflict, key)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s", storage.ErrConflict, key)
	}
	return err
}

// AddToSet adds member to the set at key.
func (s *RedisStore) AddToSet(ctx context.Context, key, member string) error {
	if err := s.rdb.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", member, key, err)
	}
	return nil
}

// RemoveFromSet removes member from the set at key.
func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) error {
	if err := s.rdb.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from %s: %w", member, key, err)
	}
	return nil
}

// Members returns all members of the set at key.
func (s *RedisStore) Members(ctx context.Context, key string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", key, err)
	}
	return members, nil
}
