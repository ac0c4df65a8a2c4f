package retrieval

import (
	"context"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorSearcher is the read side of the product vector index.
type VectorSearcher interface {
	Dimension() int
	Nearest(ctx context.Context, query []float32, k int) ([]embrepo.Hit, error)
}

// Catalog reads live product rows for display and for the brand fallback.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ProductsByBrand(ctx context.Context, brand string, limit int) ([]domain.Product, error)
}
