// Package usage describes embedding token consumption against the
// configured budget.
package usage

import (
	"fmt"
	"time"
)

// Period is the budget window a report covers.
type Period string

// Report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown usage period %q", s)
	}
}

// Bounds returns the UTC window of period containing now.
func (p Period) Bounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token usage for one budget window. A zero limit means
// unlimited, in which case Remaining is -1.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	limit     int64
	used      int64
	remaining int64
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, limit, used, remaining int64) Report {
	return Report{
		period:    period,
		start:     start,
		end:       end,
		limit:     limit,
		used:      used,
		remaining: remaining,
	}
}

// Period returns the budget window.
func (r Report) Period() Period { return r.period }

// Start returns the window start.
func (r Report) Start() time.Time { return r.start }

// ResetsAt returns the window end, when the counter starts over.
func (r Report) ResetsAt() time.Time { return r.end }

// Limit returns the token cap, zero when unlimited.
func (r Report) Limit() int64 { return r.limit }

// Used returns the tokens consumed in the window.
func (r Report) Used() int64 { return r.used }

// Remaining returns the tokens left, or -1 when unlimited.
func (r Report) Remaining() int64 { return r.remaining }

// Exhausted reports whether a capped budget is spent.
func (r Report) Exhausted() bool { return r.limit > 0 && r.remaining <= 0 }
