package push

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedup records delivered notification keys with SET NX so that a
// redelivered push task is dropped.  Keys expire after TTL.
type RedisDedup struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDedup returns nil when rdb is nil.  Callers must check for
// nil before storing the result in an interface.
func NewRedisDedup(rdb *redis.Client, prefix string, ttl time.Duration) *RedisDedup {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if prefix == "" {
		prefix = "push"
	}
	return &RedisDedup{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (d *RedisDedup) key(k string) string { return d.prefix + ":sent:" + k }

// Claim reports true the first time key is seen within TTL.
func (d *RedisDedup) Claim(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, d.key(key), time.Now().UTC().Unix(), d.ttl).Result()
}

// Release forgets key so a later attempt may deliver again.
func (d *RedisDedup) Release(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, d.key(key)).Err()
}
