package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every cache record in Redis so Sweep can scan the
// cache's keyspace without touching anything else.
const keyPrefix = "ratings-cache:"

// RedisStore is the Redis-backed cache store. It persists the same versioned
// envelope as the file backend; freshness is governed by the envelope
// timestamp, not Redis expiry, so Sweep semantics match across backends.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// HealthCheck pings Redis to verify the connection.
func (rs *RedisStore) HealthCheck(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Get retrieves the record for key. Connection errors and corrupted records
// report a miss; corrupted records are deleted.
func (rs *RedisStore) Get(ctx context.Context, key string) (Entry, bool) {
	data, err := rs.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] redis read for %q failed: %v", key, err)
		}
		return Entry{}, false
	}

	entry, ok := decodeRecord(data, key)
	if !ok {
		log.Printf("[cache] deleting corrupted cache record for %q", key)
		if err := rs.client.Del(ctx, keyPrefix+key).Err(); err != nil {
			log.Printf("[cache] failed to delete corrupted record %q: %v", key, err)
		}
		return Entry{}, false
	}

	return entry, true
}

// Put stores the payload under key with the current timestamp.
func (rs *RedisStore) Put(ctx context.Context, key string, payload []byte) error {
	data, err := encodeRecord(key, payload, time.Now())
	if err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}
	if err := rs.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing cache record: %w", err)
	}
	return nil
}

// Delete removes the records for the given keys.
func (rs *RedisStore) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	return rs.client.Del(ctx, prefixed...).Err()
}

// Sweep scans the cache namespace and deletes records older than ttl, plus
// any record it cannot decode.
func (rs *RedisStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	removed := 0
	iter := rs.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		data, err := rs.client.Get(ctx, redisKey).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("[cache] sweep: read of %q failed: %v", redisKey, err)
			}
			continue
		}

		age, ok := recordAge(data, time.Now())
		if ok && age < ttl {
			continue
		}
		if err := rs.client.Del(ctx, redisKey).Err(); err != nil {
			log.Printf("[cache] sweep: failed to delete %q: %v", redisKey, err)
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scanning cache namespace: %w", err)
	}
	return removed, nil
}
