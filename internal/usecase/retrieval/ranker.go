package retrieval

import (
	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
)

// Rank reorders hits by intent match: brand and price, brand only, price
// only, then the rest. Order within a tier is preserved, duplicates are
// dropped and the result is cut to limit. An empty intent leaves the order
// untouched.
func Rank(hits []domain.RetrievedProduct, q intent.QueryIntent, limit int) []domain.RetrievedProduct {
	if limit <= 0 {
		return []domain.RetrievedProduct{}
	}

	var tiers [4][]domain.RetrievedProduct
	seen := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ProductID]; dup {
			continue
		}
		seen[h.ProductID] = struct{}{}
		tiers[tier(h, q)] = append(tiers[tier(h, q)], h)
	}

	out := make([]domain.RetrievedProduct, 0, min(limit, len(seen)))
	for _, t := range tiers {
		for _, h := range t {
			if len(out) == limit {
				return out
			}
			out = append(out, h)
		}
	}
	return out
}

// tier is 0 for the best match and 3 for no match.
func tier(h domain.RetrievedProduct, q intent.QueryIntent) int {
	if q.IsEmpty() {
		return 3
	}
	brand := q.MatchesBrand(h.Brand)
	price := q.MatchesPrice(h.ActivePrice)
	switch {
	case brand && price:
		return 0
	case brand && !q.HasPrice():
		return 0
	case brand:
		return 1
	case price:
		return 2
	default:
		return 3
	}
}

// anyBrandMatch reports whether at least one hit carries an intent brand.
func anyBrandMatch(hits []domain.RetrievedProduct, q intent.QueryIntent) bool {
	for _, h := range hits {
		if q.MatchesBrand(h.Brand) {
			return true
		}
	}
	return false
}
