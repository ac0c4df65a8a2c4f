package answer

import (
	"context"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/usecase/retrieval"
)

// Answerer writes prose for a question from the ranked products.
type Answerer interface {
	Answer(ctx context.Context, question string, items []domain.RetrievedProduct) (string, error)
}

// Retriever produces the ranked product list.
type Retriever interface {
	Retrieve(ctx context.Context, question string, limit int) retrieval.Result
}
