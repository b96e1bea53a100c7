package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	redisBreakerDuration = 30 * time.Second
	redisPingTimeout     = 2 * time.Second
)

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager enforces the per-user request budget. It prefers the shared Redis
// backend when enabled and serves from process memory while Redis is down.
type Manager struct {
	settings       Settings
	nowFn          func() time.Time
	memory         Limiter
	newRedisClient RedisClientFactory

	mu           sync.Mutex
	redis        *RedisLimiter
	breakerUntil time.Time
}

// NewManager constructs a Manager. nil nowFn and newRedisClient fall back to
// time.Now and redis.NewClient.
func NewManager(settings Settings, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		settings:       settings.normalized(),
		nowFn:          nowFn,
		memory:         NewMemoryLimiter(),
		newRedisClient: newRedisClient,
	}
}

// Limit returns the requests allowed per window; zero means unlimited.
func (m *Manager) Limit() int {
	if m == nil {
		return 0
	}
	return m.settings.Limit
}

// AllowKey checks key against the configured limit.
func (m *Manager) AllowKey(ctx context.Context, key string) (Result, error) {
	if m == nil || m.settings.Limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()
	if m.settings.RedisEnabled {
		if result, ok := m.allowRedis(ctx, key, now); ok {
			return result, nil
		}
	}
	return m.memory.Allow(ctx, key, m.settings.Limit, now)
}

// Close releases the Redis client, if one was opened.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		return nil
	}
	errClose := m.redis.Close()
	m.redis = nil
	return errClose
}

// allowRedis reports ok=false when the caller should use the memory backend.
func (m *Manager) allowRedis(ctx context.Context, key string, now time.Time) (Result, bool) {
	limiter, errConnect := m.redisLimiter(ctx, now)
	if errConnect != nil {
		m.tripBreaker(errConnect, now)
		return Result{}, false
	}
	if limiter == nil {
		return Result{}, false
	}
	result, errAllow := limiter.Allow(ctx, key, m.settings.Limit, now)
	if errAllow != nil {
		m.tripBreaker(errAllow, now)
		return Result{}, false
	}
	return result, true
}

// redisLimiter returns the connected Redis limiter, dialing on first use. It
// returns nil without error while the breaker is open.
func (m *Manager) redisLimiter(ctx context.Context, now time.Time) (*RedisLimiter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() {
		if now.Before(m.breakerUntil) {
			return nil, nil
		}
		m.breakerUntil = time.Time{}
	}
	if m.redis != nil {
		return m.redis, nil
	}
	if m.settings.RedisAddr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     m.settings.RedisAddr,
		Password: m.settings.RedisPassword,
		DB:       m.settings.RedisDB,
	})
	if ctx == nil {
		ctx = context.Background()
	}
	ctxPing, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redis = NewRedisLimiter(client, m.settings.RedisPrefix)
	log.WithField("addr", m.settings.RedisAddr).Info("rate limit: using redis backend")
	return m.redis, nil
}

// tripBreaker opens the breaker after a Redis failure and drops the client so
// the next attempt reconnects.
func (m *Manager) tripBreaker(err error, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	if m.redis != nil {
		_ = m.redis.Close()
		m.redis = nil
	}
	log.WithError(err).Warn("rate limit: redis unavailable, falling back to memory")
}
