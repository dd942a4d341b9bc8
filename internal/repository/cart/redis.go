package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"minishop-gateway/internal/domain"
)

const (
	redisKeyPrefix = "minishop:cart:"
	// redisUpdateAttempts bounds optimistic retries when another writer
	// touches the cart between WATCH and EXEC.
	redisUpdateAttempts = 50
)

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis stores each cart as a JSON string with a sliding TTL.
func NewRedis(client redis.UniversalClient, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

func (r *redisRepo) key(id string) string {
	return redisKeyPrefix + id
}

func (r *redisRepo) Save(ctx context.Context, snap domain.CartSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(snap.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (domain.CartSnapshot, error) {
	return r.read(ctx, r.client, id)
}

func (r *redisRepo) read(ctx context.Context, c stringGetter, id string) (domain.CartSnapshot, error) {
	payload, err := c.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CartSnapshot{}, domain.ErrNotFound
		}
		return domain.CartSnapshot{}, fmt.Errorf("get cart: %w", err)
	}
	var snap domain.CartSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return snap, nil
}

// Update uses WATCH/MULTI and retries when another writer got in first.
func (r *redisRepo) Update(ctx context.Context, id string, fn func(snap *domain.CartSnapshot) error) (domain.CartSnapshot, error) {
	key := r.key(id)
	for attempt := 0; attempt < redisUpdateAttempts; attempt++ {
		var out domain.CartSnapshot
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			snap, err := r.read(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := fn(&snap); err != nil {
				return err
			}
			snap.ID = id
			payload, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("encode cart: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			out = snap
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.CartSnapshot{}, err
		}
		return out, nil
	}
	return domain.CartSnapshot{}, fmt.Errorf("update cart %s: %w", id, domain.ErrConflict)
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
