// Package dedup provides notification cache backends for alert cooldowns.
package dedup

import (
	"context"
	"time"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	"github.com/fd1az/liquidity-scanner/internal/cache"
)

var _ app.NotificationCache = (*Memory)(nil)

// Memory is a process-local notification cache. Entries expire after the
// cooldown, lazily on lookup and by a periodic sweep.
type Memory struct {
	entries  *cache.Cache[string, app.NotificationEntry]
	cooldown time.Duration
}

// NewMemory creates a memory cache. sweep is the background eviction interval;
// zero disables the sweeper.
func NewMemory(cooldown, sweep time.Duration, opts ...cache.Option) *Memory {
	return &Memory{
		entries:  cache.New[string, app.NotificationEntry](sweep, opts...),
		cooldown: cooldown,
	}
}

// Contains reports whether key was notified within the cooldown.
func (m *Memory) Contains(ctx context.Context, key string) (bool, error) {
	_, ok := m.entries.Get(ctx, key)
	return ok, nil
}

// Add records entry under key for one cooldown.
func (m *Memory) Add(ctx context.Context, key string, entry app.NotificationEntry) error {
	m.entries.Set(ctx, key, entry, m.cooldown)
	return nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Close stops the sweeper.
func (m *Memory) Close() error {
	m.entries.Close()
	return nil
}
