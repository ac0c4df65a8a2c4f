// Package retrieval answers a shopping question with a bounded, ranked list of
// catalog products: intent extraction, vector search, live catalog join,
// intent ranking and a brand fallback.
package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
	"github.com/kailas-cloud/catalogsearch/internal/metrics"
)

// Defaults for Options.
const (
	DefaultLimit               = 5
	DefaultMaxLimit            = 20
	DefaultCandidateMultiplier = 3
	DefaultFallbackOversample  = 2
	DefaultEmbedTimeout        = 10 * time.Second
)

// Options tunes the retrieval service. Zero values take the defaults.
type Options struct {
	DefaultLimit        int
	MaxLimit            int
	CandidateMultiplier int
	FallbackOversample  int
	EmbedTimeout        time.Duration
	PricePolicy         pricing.Policy
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = DefaultMaxLimit
	}
	o.DefaultLimit = min(o.DefaultLimit, o.MaxLimit)
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if o.FallbackOversample <= 0 {
		o.FallbackOversample = DefaultFallbackOversample
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = DefaultEmbedTimeout
	}
	if o.PricePolicy == "" {
		o.PricePolicy = pricing.PolicyLatestStart
	}
	return o
}

// Result is the outcome of one retrieval. Items is never nil.
type Result struct {
	Items    []domain.RetrievedProduct
	Intent   intent.QueryIntent
	Fallback bool
}

// Service is the retrieval facade.
type Service struct {
	embed     Embedder
	index     VectorSearcher
	catalog   Catalog
	extractor *intent.Extractor
	brands    *intent.BrandLookup
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a retrieval service.
func New(
	embed Embedder, index VectorSearcher, catalog Catalog,
	extractor *intent.Extractor, brands *intent.BrandLookup,
	opts Options, logger *zap.Logger,
) *Service {
	return &Service{
		embed:     embed,
		index:     index,
		catalog:   catalog,
		extractor: extractor,
		brands:    brands,
		opts:      opts.withDefaults(),
		now:       time.Now,
		logger:    logger,
	}
}

// ClampLimit maps a requested limit into [1, MaxLimit]; non-positive means
// the default.
func (s *Service) ClampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	return min(limit, s.opts.MaxLimit)
}

// Retrieve returns up to limit products for question. Backend failures are
// logged and yield an empty list; Retrieve never fails. A failed question
// embedding ends the request, while a failed or empty index search still
// gets the brand fallback.
func (s *Service) Retrieve(ctx context.Context, question string, limit int) Result {
	limit = s.ClampLimit(limit)

	q, err := s.extractor.Extract(ctx, question)
	if err != nil {
		s.logger.Warn("Brand lookup unavailable, continuing without brands", zap.Error(err))
	}
	res := Result{Items: []domain.RetrievedProduct{}, Intent: q}

	if strings.TrimSpace(question) == "" {
		s.observe(metrics.OutcomeEmpty, 0)
		return res
	}

	hits, outcome := s.search(ctx, question, limit)
	if outcome == metrics.OutcomeNotConfigured || outcome == metrics.OutcomeEmbedFailed {
		// No vector means no result, not a guessed one.
		s.observe(outcome, 0)
		return res
	}

	res.Items = Rank(hits, q, limit)
	if q.HasBrands() && !anyBrandMatch(res.Items, q) {
		if fb := s.fallback(ctx, q, limit); len(fb) > 0 {
			res.Items = fb
			res.Fallback = true
		}
	}

	if outcome == metrics.OutcomeOK && len(res.Items) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.observe(outcome, len(res.Items))
	return res
}

// search embeds the question and resolves the nearest products against the
// live catalog. Failures are logged and return no hits.
func (s *Service) search(ctx context.Context, question string, limit int) ([]domain.RetrievedProduct, string) {
	embCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	emb, err := s.embed.Embed(embCtx, question)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingNotConfigured) {
			s.logger.Warn("Embedding provider not configured, semantic search disabled")
			return nil, metrics.OutcomeNotConfigured
		}
		s.logger.Error("Query embedding failed", zap.Error(err))
		return nil, metrics.OutcomeEmbedFailed
	}
	if len(emb.Embedding) == 0 {
		s.logger.Error("Query embedding is empty")
		return nil, metrics.OutcomeEmbedFailed
	}

	query := vector.Fit(emb.Embedding, s.index.Dimension())
	hits, err := s.index.Nearest(ctx, query, limit*s.opts.CandidateMultiplier)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			s.logger.Warn("Vector index not built yet")
			return nil, metrics.OutcomeNotReady
		}
		s.logger.Error("Similarity search failed", zap.Error(err))
		return nil, metrics.OutcomeSearchFailed
	}
	if len(hits) == 0 {
		return nil, metrics.OutcomeOK
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ProductID
	}
	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Catalog join failed", zap.Error(err))
		return nil, metrics.OutcomeSearchFailed
	}

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	out := make([]domain.RetrievedProduct, 0, len(hits))
	for _, h := range hits {
		p, ok := byID[h.ProductID]
		if !ok {
			// Embedded product no longer in the catalog.
			continue
		}
		out = append(out, s.toRetrieved(p, h.Distance, domain.SourceVector))
	}
	return out, metrics.OutcomeOK
}

func (s *Service) toRetrieved(p *domain.Product, distance float64, source string) domain.RetrievedProduct {
	sel := s.opts.PricePolicy.Select(p, s.now())
	if sel.Conflict() {
		s.logger.Warn("Several active prices, picked one by policy",
			zap.Int64("product_id", p.ID),
			zap.Int("candidates", sel.Candidates),
			zap.String("policy", string(s.opts.PricePolicy)),
		)
	}
	return domain.RetrievedProduct{
		ProductID:   p.ID,
		Name:        p.Name,
		Brand:       p.BrandName(),
		ActivePrice: sel.Amount(),
		Description: p.MergedDescription(),
		Distance:    distance,
		Source:      source,
	}
}

func (s *Service) observe(outcome string, n int) {
	metrics.RetrievalRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.RetrievalResults.Observe(float64(n))
}

// Brands returns the display names of the current brand snapshot.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	snap, err := s.brands.Snapshot(ctx)
	return snap.Names(), err
}

// RefreshBrands rebuilds the brand snapshot from the catalog. Readers keep
// the old snapshot until the new one is complete.
func (s *Service) RefreshBrands(ctx context.Context) ([]string, error) {
	snap, err := s.brands.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Brand lookup refreshed", zap.Int("brands", snap.Len()))
	return snap.Names(), nil
}
