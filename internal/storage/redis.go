package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"giardino/internal/core"
)

const (
	stateKeyPrefix = "giardino:state:"
	loginKeyPrefix = "giardino:login:"
)

// RedisRepository persists snapshots in Redis, one key per user token.
// Login flags map naturally onto keys with a TTL, so "cleared on expiry"
// sessions come for free.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr string, db int) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRepository{client: client}, nil
}

func (r *RedisRepository) SaveState(ctx context.Context, userID string, state core.State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, stateKeyPrefix+userID, payload, 0).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *RedisRepository) LoadState(ctx context.Context, userID string) (core.State, error) {
	payload, err := r.client.Get(ctx, stateKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.State{}, ErrStateNotFound
	}
	if err != nil {
		return core.State{}, fmt.Errorf("load state: %w", err)
	}
	return decodeState(payload)
}

func (r *RedisRepository) DeleteState(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, stateKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (r *RedisRepository) SetLoginFlag(ctx context.Context, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, loginKeyPrefix+userID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("set login flag: %w", err)
	}
	return nil
}

func (r *RedisRepository) ClearLoginFlag(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, loginKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("clear login flag: %w", err)
	}
	return nil
}

func (r *RedisRepository) IsLoggedIn(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, loginKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("check login flag: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
