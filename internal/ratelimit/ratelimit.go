// Package ratelimit enforces a per-user request ceiling using a fixed
// one-second window. Redis backs the counter when configured so limits
// hold across replicas; a local in-memory counter takes over whenever
// Redis is unreachable.
package ratelimit

import (
	"context"
	"fmt"
	"time"
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

// Settings is a snapshot of the limiter configuration.
type Settings struct {
	PerSecond     int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() Settings

// KeyForUser builds the limiter key for a user. A zero ID yields an
// empty key, which every limiter treats as unlimited.
func KeyForUser(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("u:%d", userID)
}
