package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

// Policy picks one price when several are active at the same time.
type Policy string

// Supported active price policies.
const (
	PolicyLatestStart   Policy = "latest_start"
	PolicyEarliestStart Policy = "earliest_start"
	PolicyLowestAmount  Policy = "lowest_amount"
)

// ParsePolicy validates a configured policy name. Empty means PolicyLatestStart.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyLatestStart, nil
	case PolicyLatestStart, PolicyEarliestStart, PolicyLowestAmount:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown active price policy %q", s)
	}
}

// Selection is the outcome of picking a product's active price.
type Selection struct {
	Price domain.Price
	Found bool
	// Candidates is the number of prices that were active at selection time.
	// More than one is a data-quality conflict the caller should report.
	Candidates int
}

// Conflict reports whether more than one price was active.
func (s Selection) Conflict() bool { return s.Candidates > 1 }

// Amount returns the selected amount or nil when no price is active.
func (s Selection) Amount() *int64 {
	if !s.Found {
		return nil
	}
	v := s.Price.Amount
	return &v
}

// Select applies the policy to the product's prices active at now.
func (p Policy) Select(product *domain.Product, now time.Time) Selection {
	active := product.ActivePrices(now)
	if len(active) == 0 {
		return Selection{}
	}

	sorted := make([]domain.Price, len(active))
	copy(sorted, active)

	switch p {
	case PolicyEarliestStart:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		})
	case PolicyLowestAmount:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Amount < sorted[j].Amount
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartDate.After(sorted[j].StartDate)
		})
	}

	return Selection{Price: sorted[0], Found: true, Candidates: len(active)}
}
