// Package embedding rebuilds the product vector index from the catalog.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/batch"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
	"github.com/kailas-cloud/catalogsearch/internal/metrics"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
)

// DefaultItemTimeout bounds a single provider call during a rebuild.
const DefaultItemTimeout = 30 * time.Second

// Abort reasons reported when a rebuild stops before the last product.
const (
	AbortNotConfigured = "embedding provider not configured"
	AbortQuota         = "embedding quota exceeded"
	AbortCancelled     = "cancelled"
)

// Report summarises one rebuild.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Items     batch.Tally
	// Aborted is set when the run stopped early; remaining products are skipped.
	Aborted  string
	Failures []batch.Result
}

// Pipeline embeds every catalog product and upserts it into the vector index.
type Pipeline struct {
	catalog     CatalogReader
	index       VectorIndex
	synth       Synthesizer
	embedder    domain.Embedder
	limiter     *rate.Limiter
	itemTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewPipeline creates a rebuild pipeline.
func NewPipeline(
	catalog CatalogReader, index VectorIndex, synth Synthesizer,
	embedder domain.Embedder, logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		catalog:     catalog,
		index:       index,
		synth:       synth,
		embedder:    embedder,
		itemTimeout: DefaultItemTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// WithItemTimeout sets the per-product provider timeout.
func (p *Pipeline) WithItemTimeout(d time.Duration) *Pipeline {
	if d > 0 {
		p.itemTimeout = d
	}
	return p
}

// WithRateLimit throttles provider calls to rps with the given burst.
// A non-positive rps disables throttling.
func (p *Pipeline) WithRateLimit(rps float64, burst int) *Pipeline {
	if rps <= 0 {
		p.limiter = nil
		return p
	}
	p.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	return p
}

// RebuildIfEmpty runs RebuildAll only when the index holds no records.
// The bool reports whether a rebuild ran.
func (p *Pipeline) RebuildIfEmpty(ctx context.Context) (Report, bool, error) {
	n, err := p.index.Count(ctx)
	if err != nil {
		return Report{}, false, fmt.Errorf("count embeddings: %w", err)
	}
	if n > 0 {
		p.logger.Info("Embedding index already populated, skipping rebuild", zap.Int("records", n))
		return Report{}, false, nil
	}
	rep, err := p.RebuildAll(ctx)
	return rep, true, err
}

// ResetAndRebuild drops the index with its records and rebuilds from scratch.
func (p *Pipeline) ResetAndRebuild(ctx context.Context) (Report, error) {
	if err := p.index.Reset(ctx); err != nil {
		return Report{}, fmt.Errorf("reset index: %w", err)
	}
	return p.RebuildAll(ctx)
}

// RebuildAll embeds every product. Per-product failures are counted and the
// run continues; only catalog and index setup errors are returned.
func (p *Pipeline) RebuildAll(ctx context.Context) (rep Report, err error) {
	rep.StartedAt = p.now()
	metrics.RebuildRunning.Inc()
	defer func() {
		metrics.RebuildRunning.Dec()
		rep.Duration = p.now().Sub(rep.StartedAt)
	}()

	products, err := p.catalog.ListProducts(ctx)
	if err != nil {
		return rep, fmt.Errorf("list products: %w", err)
	}
	if err := p.index.EnsureIndex(ctx); err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}
	rep.Total = len(products)

	for i := range products {
		if ctx.Err() != nil {
			p.skipRest(&rep, products[i:], AbortCancelled)
			break
		}

		itemErr := p.embedOne(ctx, &products[i])
		switch {
		case itemErr == nil:
			p.add(&rep, batch.NewOK(products[i].ID))
			continue
		case errors.Is(itemErr, domain.ErrEmbeddingNotConfigured):
			p.logger.Warn("Embedding provider not configured, rebuild skipped")
			return Report{StartedAt: rep.StartedAt, Aborted: AbortNotConfigured}, nil
		case errors.Is(itemErr, domain.ErrEmbeddingQuotaExceeded):
			p.logger.Warn("Embedding quota exceeded, stopping rebuild", zap.Int("remaining", len(products)-i))
			p.skipRest(&rep, products[i:], AbortQuota)
		case ctx.Err() != nil:
			p.skipRest(&rep, products[i:], AbortCancelled)
		default:
			p.logger.Warn("Failed to embed product",
				zap.Int64("product_id", products[i].ID),
				zap.Error(itemErr),
			)
			p.add(&rep, batch.NewError(products[i].ID, itemErr))
			continue
		}
		break
	}

	if rep.Aborted == "" {
		metrics.RebuildDuration.Observe(p.now().Sub(rep.StartedAt).Seconds())
	}
	p.logger.Info("Embedding rebuild finished",
		zap.Int("total", rep.Total),
		zap.Int("ok", rep.Items.OK),
		zap.Int("failed", rep.Items.Failed),
		zap.Int("skipped", rep.Items.Skipped),
		zap.String("aborted", rep.Aborted),
		zap.Duration("duration", p.now().Sub(rep.StartedAt)),
	)
	return rep, nil
}

func (p *Pipeline) embedOne(ctx context.Context, product *domain.Product) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	built := p.synth.Build(product)
	if built.PriceConflict {
		p.logger.Warn("Several active prices, picked one by policy",
			zap.Int64("product_id", product.ID),
			zap.Int("candidates", built.Price.Candidates),
		)
	}

	itemCtx, cancel := context.WithTimeout(ctx, p.itemTimeout)
	defer cancel()

	res, err := p.embedder.Embed(itemCtx, built.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(res.Embedding) == 0 {
		return fmt.Errorf("empty embedding: %w", domain.ErrEmbeddingProviderError)
	}

	rec := embrepo.Record{
		ProductID:  product.ID,
		SourceText: built.Text,
		Vector:     vector.Fit(res.Embedding, p.index.Dimension()),
		UpdatedAt:  p.now(),
	}
	if err := p.index.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (p *Pipeline) add(rep *Report, r batch.Result) {
	rep.Items.Add(r)
	if r.Status() == batch.StatusError {
		rep.Failures = append(rep.Failures, r)
	}
	metrics.RebuildItemsTotal.WithLabelValues(string(r.Status())).Inc()
}

func (p *Pipeline) skipRest(rep *Report, rest []domain.Product, reason string) {
	rep.Aborted = reason
	for i := range rest {
		p.add(rep, batch.NewSkipped(rest[i].ID))
	}
}
