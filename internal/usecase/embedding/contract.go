package embedding

import (
	"context"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/sourcetext"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
)

// CatalogReader lists the products to embed.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// VectorIndex is the write side of the product vector index.
type VectorIndex interface {
	Dimension() int
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, rec embrepo.Record) error
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Synthesizer renders the embedding source text of a product.
type Synthesizer interface {
	Build(p *domain.Product) sourcetext.Result
}

// Rebuilder is the pipeline as seen by the background runner.
type Rebuilder interface {
	RebuildAll(ctx context.Context) (Report, error)
	RebuildIfEmpty(ctx context.Context) (Report, bool, error)
	ResetAndRebuild(ctx context.Context) (Report, error)
}
