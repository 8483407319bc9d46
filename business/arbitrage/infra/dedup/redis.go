package dedup

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
)

var _ app.NotificationCache = (*Redis)(nil)

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// NewRedisClient creates a client and pings it.
func NewRedisClient(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apperror.New(apperror.CodeDedupBackendError,
			apperror.WithCause(err),
			apperror.WithContext("redis ping "+cfg.Addr))
	}
	return rdb, nil
}

// Redis is a notification cache shared between scanner instances.
// Entries are JSON values under prefix+key with the cooldown as TTL.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	cooldown time.Duration
}

// NewRedis creates a cache family. Use a distinct prefix per family.
func NewRedis(rdb *redis.Client, prefix string, cooldown time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, cooldown: cooldown}
}

// Close closes the shared client. Families built on the same client must
// register only one of them for shutdown.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Contains reports whether key was notified within the cooldown.
func (r *Redis) Contains(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Add records entry under key. An entry already present keeps its TTL.
func (r *Redis) Add(ctx context.Context, key string, entry app.NotificationEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: marshal entry: %w", err)
	}
	if err := r.rdb.SetNX(ctx, r.key(key), data, r.cooldown).Err(); err != nil {
		return fmt.Errorf("redis: setnx %s: %w", key, err)
	}
	return nil
}

// Get returns the stored entry for key.
func (r *Redis) Get(ctx context.Context, key string) (app.NotificationEntry, bool, error) {
	data, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return app.NotificationEntry{}, false, nil
	}
	if err != nil {
		return app.NotificationEntry{}, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	var entry app.NotificationEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return app.NotificationEntry{}, false, fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return entry, true, nil
}
