// Package budget persists embedding token counters in the KV store so every
// replica and the admin CLI share one daily and one monthly total.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/db"
)

// Counter TTLs outlive their period so a late reader still sees the total.
const (
	DailyTTL   = 48 * time.Hour
	MonthlyTTL = 62 * 24 * time.Hour
)

// store is the consumer interface for budget counters (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Usage is the persisted token usage for the current day and month.
type Usage struct {
	Daily   int64
	Monthly int64
}

// Store reads and increments per-provider token counters.
type Store struct {
	store     store
	keyPrefix string
	provider  string
}

// New creates a budget store. Keys look like
// "<prefix>budget:<provider>:daily:2006-01-02".
func New(s store, keyPrefix, provider string) *Store {
	return &Store{store: s, keyPrefix: keyPrefix, provider: provider}
}

// Load returns the usage recorded for the day and month containing now.
// Missing counters read as zero.
func (s *Store) Load(ctx context.Context, now time.Time) (Usage, error) {
	daily, err := s.get(ctx, s.DailyKey(now))
	if err != nil {
		return Usage{}, err
	}
	monthly, err := s.get(ctx, s.MonthlyKey(now))
	if err != nil {
		return Usage{}, err
	}
	return Usage{Daily: daily, Monthly: monthly}, nil
}

// Add increments both counters and returns the totals after the increment.
func (s *Store) Add(ctx context.Context, now time.Time, tokens int64) (Usage, error) {
	daily, err := s.store.IncrWithTTL(ctx, s.DailyKey(now), tokens, DailyTTL)
	if err != nil {
		return Usage{}, fmt.Errorf("budget incr daily: %w", err)
	}
	monthly, err := s.store.IncrWithTTL(ctx, s.MonthlyKey(now), tokens, MonthlyTTL)
	if err != nil {
		return Usage{Daily: daily}, fmt.Errorf("budget incr monthly: %w", err)
	}
	return Usage{Daily: daily, Monthly: monthly}, nil
}

// DailyKey is the counter key for the UTC day of t.
func (s *Store) DailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", s.keyPrefix, s.provider, t.UTC().Format("2006-01-02"))
}

// MonthlyKey is the counter key for the UTC month of t.
func (s *Store) MonthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", s.keyPrefix, s.provider, t.UTC().Format("2006-01"))
}

func (s *Store) get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget parse %s: %w", key, err)
	}
	return v, nil
}
