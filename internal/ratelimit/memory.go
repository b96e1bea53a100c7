package ratelimit

import (
	"context"
	"sync"
	"time"
)

// memoryPruneEvery bounds how often stale windows are dropped.
const memoryPruneEvery = time.Minute

type memoryEntry struct {
	window int64
	count  int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]*memoryEntry
	lastPrune time.Time
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the request should be allowed in the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	sec := windowStart(now)
	reset := windowReset(sec)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now, sec)
	entry := l.counters[key]
	if entry == nil || entry.window != sec {
		entry = &memoryEntry{window: sec}
		l.counters[key] = entry
	}
	if entry.count >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, Reset: reset}, nil
	}
	entry.count++
	return Result{Allowed: true, Limit: limit, Remaining: limit - entry.count, Reset: reset}, nil
}

// pruneLocked drops counters of closed windows so idle users do not
// accumulate. Callers hold l.mu.
func (l *MemoryLimiter) pruneLocked(now time.Time, current int64) {
	if now.Sub(l.lastPrune) < memoryPruneEvery {
		return
	}
	l.lastPrune = now
	for key, entry := range l.counters {
		if entry.window < current {
			delete(l.counters, key)
		}
	}
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
