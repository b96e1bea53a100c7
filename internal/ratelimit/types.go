package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter provides fixed-window rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// windowStart returns the unix second opening the one-second window of now.
func windowStart(now time.Time) int64 {
	return now.Unix()
}

// windowReset returns when the window opened at sec closes.
func windowReset(sec int64) time.Time {
	return time.Unix(sec+1, 0).UTC()
}
