package config

import (
    "context"
    "crypto/tls"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection settings.  Redis backs the rate
// limiter, the response cache and the push delivery dedup records.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST and REDIS_PORT, or REDIS_ADDR when
// host/port are not both set, plus REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient connects and pings with a short timeout.  It returns nil
// when Redis is unreachable; callers then run without caching, rate
// limiting and push dedup.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable: %v", cfg.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
