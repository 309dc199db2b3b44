package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
    t.Setenv("X_STR", "v")
    t.Setenv("X_BOOL", "Yes")
    t.Setenv("X_BAD_BOOL", "maybe")
    t.Setenv("X_INT", "12")
    t.Setenv("X_BAD_INT", "twelve")
    t.Setenv("X_DUR", "90s")

    assert.Equal(t, "v", envStr("X_STR", "d"))
    assert.Equal(t, "d", envStr("X_UNSET", "d"))
    assert.True(t, envBool("X_BOOL", false))
    assert.True(t, envBool("X_BAD_BOOL", true))
    assert.Equal(t, 12, envInt("X_INT", 1))
    assert.Equal(t, 1, envInt("X_BAD_INT", 1))
    assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
    assert.Equal(t, time.Second, envDur("X_UNSET", time.Second))
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RefillInterval)
    assert.Equal(t, 10*time.Second, cfg.TTL)
    assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head ,")
    t.Setenv("CACHE_ENABLED", "false")

    cfg := LoadCacheConfig()
    assert.False(t, cfg.Enabled)
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, "cache", cfg.Prefix)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)

    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_DB", "2")
    cfg := LoadRedisConfig()
    assert.Equal(t, "redis:6379", cfg.Addr)
    assert.Equal(t, 2, cfg.DB)
    assert.False(t, cfg.TLS)
}

func TestLoad(t *testing.T) {
    for k, v := range map[string]string{
        "APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "app", "DB_HOST": "db",
        "DB_PORT": "3306", "DB_NAME": "events", "JWT_SECRET": "s",
        "REMINDER_LEAD_TIME": "2h",
    } {
        t.Setenv(k, v)
    }
    cfg := Load()
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, DefaultDisplayTimezone, cfg.DisplayTimezone.String())
    assert.Equal(t, 2*time.Hour, cfg.ReminderLeadTime)
    assert.Equal(t, time.Minute, cfg.PollInterval)
    assert.Equal(t, "/login", cfg.LoginURL)
    assert.Equal(t, 15, cfg.AccessTTLMin)
}
