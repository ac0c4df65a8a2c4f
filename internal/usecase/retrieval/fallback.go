package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/metrics"
)

// fallback queries the catalog per intent brand, applies the price bound and
// collects up to limit products. A failing brand contributes nothing.
func (s *Service) fallback(ctx context.Context, q intent.QueryIntent, limit int) []domain.RetrievedProduct {
	out := make([]domain.RetrievedProduct, 0, limit)
	seen := make(map[int64]struct{})
	failed := false

	for _, b := range q.Brands {
		if len(out) == limit {
			break
		}
		products, err := s.catalog.ProductsByBrand(ctx, b.Display, limit*s.opts.FallbackOversample)
		if err != nil {
			s.logger.Warn("Brand fallback query failed", zap.String("brand", b.Display), zap.Error(err))
			failed = true
			continue
		}
		for i := range products {
			if _, dup := seen[products[i].ID]; dup {
				continue
			}
			item := s.toRetrieved(&products[i], 0, domain.SourceCatalog)
			if q.HasPrice() && !q.MatchesPrice(item.ActivePrice) {
				continue
			}
			seen[products[i].ID] = struct{}{}
			out = append(out, item)
			if len(out) == limit {
				break
			}
		}
	}

	switch {
	case len(out) > 0:
		metrics.RetrievalFallbackTotal.WithLabelValues("hit").Inc()
	case failed:
		metrics.RetrievalFallbackTotal.WithLabelValues("error").Inc()
	default:
		metrics.RetrievalFallbackTotal.WithLabelValues("miss").Inc()
	}
	return out
}
