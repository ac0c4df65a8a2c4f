package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/repository/budget"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// ParseBudgetAction maps a config value to a BudgetAction (default warn).
func ParseBudgetAction(s string) (BudgetAction, error) {
	switch BudgetAction(s) {
	case "", BudgetActionWarn:
		return BudgetActionWarn, nil
	case BudgetActionReject:
		return BudgetActionReject, nil
	default:
		return "", fmt.Errorf("unknown budget action %q: %w", s, domain.ErrInvalidRequest)
	}
}

// BudgetStore persists shared token counters.
type BudgetStore interface {
	Load(ctx context.Context, now time.Time) (budget.Usage, error)
	Add(ctx context.Context, now time.Time, tokens int64) (budget.Usage, error)
}

// BudgetTracker enforces daily and monthly token caps on provider calls.
// Check is answered from memory; Record writes through to the store and
// adopts the shared totals it returns.
type BudgetTracker struct {
	mu           sync.Mutex
	used         budget.Usage
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	provider     string
	day          time.Time
	month        time.Time
	store        BudgetStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudgetTracker creates a tracker. Zero limits mean unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		provider:     provider,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	b.day, b.month = periods(b.now())
	return b
}

// WithStore attaches shared persistence and loads the current totals.
// A failed load keeps the in-memory counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, s BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = s
	u, err := s.Load(ctx, b.now())
	if err != nil {
		b.logger.Warn("Failed to load token budget", zap.String("provider", b.provider), zap.Error(err))
		return b
	}
	b.used = u
	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", u.Daily),
		zap.Int64("monthly_used", u.Monthly),
	)
	return b
}

// Check reports whether another provider call is allowed.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	dailyOver := b.dailyLimit > 0 && b.used.Daily >= b.dailyLimit
	monthlyOver := b.monthlyLimit > 0 && b.used.Monthly >= b.monthlyLimit
	if !dailyOver && !monthlyOver {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.used.Daily),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.used.Monthly),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollover()
	b.used.Daily += tokens
	b.used.Monthly += tokens
	s := b.store
	now := b.now()
	b.mu.Unlock()

	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	shared, err := s.Add(ctx, now, tokens)
	if err != nil {
		b.logger.Warn("Failed to persist token budget", zap.String("provider", b.provider), zap.Error(err))
		return
	}

	b.mu.Lock()
	b.used.Daily = max(b.used.Daily, shared.Daily)
	b.used.Monthly = max(b.used.Monthly, shared.Monthly)
	b.mu.Unlock()
}

// Used returns the tokens consumed in the current day and month.
func (b *BudgetTracker) Used() budget.Usage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.used
}

// DailyLimit returns the daily cap, zero when unlimited.
func (b *BudgetTracker) DailyLimit() int64 { return b.dailyLimit }

// MonthlyLimit returns the monthly cap, zero when unlimited.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthlyLimit }

// DailyUsed returns the tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 { return b.Used().Daily }

// MonthlyUsed returns the tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 { return b.Used().Monthly }

// RemainingDaily returns the tokens left today, or -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	return remaining(b.dailyLimit, b.Used().Daily)
}

// RemainingMonthly returns the tokens left this month, or -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	return remaining(b.monthlyLimit, b.Used().Monthly)
}

func (b *BudgetTracker) rollover() {
	day, month := periods(b.now())
	if day.After(b.day) {
		b.used.Daily = 0
		b.day = day
	}
	if month.After(b.month) {
		b.used.Monthly = 0
		b.month = month
	}
}

func periods(t time.Time) (day, month time.Time) {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}
