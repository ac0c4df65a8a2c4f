// Package usage reports embedding token consumption.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/catalogsearch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// Report builds the usage report for the current window of period.
func (s *Service) Report(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())
	if s.br == nil {
		return domusage.NewReport(period, start, end, 0, 0, -1)
	}

	if period == domusage.PeriodMonth {
		return domusage.NewReport(period, start, end,
			s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.RemainingMonthly())
	}
	return domusage.NewReport(period, start, end,
		s.br.DailyLimit(), s.br.DailyUsed(), s.br.RemainingDaily())
}
