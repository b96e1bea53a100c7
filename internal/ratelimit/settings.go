package ratelimit

import (
	"strings"

	"github.com/personal-organizer/organizer/internal/config"
)

// Settings captures the limiter budget and its backend.
type Settings struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig converts the file configuration into limiter settings.
func SettingsFromConfig(cfg config.RateLimitConfig) Settings {
	return Settings{
		Limit:         cfg.Limit,
		RedisEnabled:  cfg.RedisEnabled,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	}.normalized()
}

func (s Settings) normalized() Settings {
	s.Limit = max(0, s.Limit)
	s.RedisDB = max(0, s.RedisDB)
	s.RedisAddr = strings.TrimSpace(s.RedisAddr)
	s.RedisPassword = strings.TrimSpace(s.RedisPassword)
	s.RedisPrefix = strings.TrimSpace(s.RedisPrefix)
	if s.RedisPrefix == "" {
		s.RedisPrefix = config.DefaultRateLimitRedisPrefix
	}
	return s
}
