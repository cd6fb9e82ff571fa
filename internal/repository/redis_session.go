package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"propertymatch/internal/model"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
	TTL      time.Duration
}

// RedisSessionStore keeps conversation state in Redis so several server
// instances can share sessions
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis and verifies the connection
func NewRedisSessionStore(cfg RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "pm:session:"
	}

	return &RedisSessionStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Save implements SessionStore; every save refreshes the TTL
func (s *RedisSessionStore) Save(ctx context.Context, state model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+state.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load implements SessionStore
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (model.ConversationState, error) {
	val, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ConversationState{}, ErrSessionNotFound
	}
	if err != nil {
		return model.ConversationState{}, fmt.Errorf("redis get: %w", err)
	}

	var state model.ConversationState
	if err := json.Unmarshal(val, &state); err != nil {
		return model.ConversationState{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return state, nil
}

// Delete implements SessionStore
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	n, err := s.client.Del(ctx, s.prefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

var _ SessionStore = (*RedisSessionStore)(nil)
