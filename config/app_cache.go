package config

import (
	"context"
	"os"
	"time"

	"github.com/wayfarermaps/landing/internal/log"
	pkgredis "github.com/wayfarermaps/landing/pkg/redis"
	"github.com/wayfarermaps/landing/pkg/utils"
)

// Cache is the key-value surface the application needs from Redis. A nil
// Cache is a supported state; callers degrade to in-process alternatives.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host: utils.GetEnvTrimmed("REDIS_HOST"),
		Port: utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		// Passwords keep their exact bytes, including leading or trailing
		// whitespace.
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

// NewCacheOrNil returns nil both when Redis is unconfigured and when the
// connection fails. Callers treat a nil cache as "run without one": the rate
// limiter then keeps its state in process memory.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
	})
	if err != nil {
		logger.Error("Failed to create Cache (Redis)", "error", err)
		return nil
	}

	logger.Info("Cache (Redis) connected successfully")
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	err := cache.Close()
	if err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
