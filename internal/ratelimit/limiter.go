// Package ratelimit enforces a per-user fixed-window request limit over the
// metered analysis endpoints. This is transport-level abuse protection and is
// independent of the subscription usage quota.
package ratelimit

import (
	"context"
	"strings"
	"time"

	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// KeyForUser builds a limiter key for one account.
func KeyForUser(uid string) string {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return ""
	}
	return "u:" + uid
}

// SettingsConfig captures rate limit settings stored in DB config.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadSettingsConfig loads the current rate limit settings snapshot.
func LoadSettingsConfig() SettingsConfig {
	cfg := SettingsConfig{
		Limit:         internalsettings.IntValue(internalsettings.RateLimitKey, internalsettings.DefaultRateLimit),
		RedisEnabled:  internalsettings.BoolValue(internalsettings.RateLimitRedisEnabledKey, false),
		RedisAddr:     strings.TrimSpace(internalsettings.StringValue(internalsettings.RateLimitRedisAddrKey, "")),
		RedisPassword: internalsettings.StringValue(internalsettings.RateLimitRedisPasswordKey, ""),
		RedisDB:       internalsettings.IntValue(internalsettings.RateLimitRedisDBKey, 0),
		RedisPrefix:   strings.TrimSpace(internalsettings.StringValue(internalsettings.RateLimitRedisPrefixKey, internalsettings.DefaultRateLimitRedisPrefix)),
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = internalsettings.DefaultRateLimitRedisPrefix
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	return cfg
}
