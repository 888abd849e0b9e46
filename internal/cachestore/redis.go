package cachestore

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis is the Store implementation backed by a Redis client. Documents are
// msgpack blobs under string keys; counters are Redis hashes incremented
// with HIncrBy so concurrent writers never lose updates.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "redis get failed")
	}
	if err := decodeValue(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis del failed")
	}
	return nil
}

// IncrField implements Store.
func (r *Redis) IncrField(ctx context.Context, key, field string, delta int64, ttl time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, field, delta)
	if ttl > 0 {
		// NX keeps the bucket's original expiry so counters stay
		// monotonic for the bucket's whole lifetime.
		pipe.ExpireNX(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "redis hincrby failed")
	}
	return incr.Val(), nil
}

// Counters implements Store.
func (r *Redis) Counters(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis hgetall failed")
	}

	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "non-numeric counter field %s at %s", field, key)
		}
		out[field] = n
	}
	return out, nil
}

// ScanKeys implements Store.
func (r *Redis) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan failed")
	}
	return keys, nil
}
