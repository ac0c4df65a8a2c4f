package retrieval

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/metrics"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// --- Embedder mock ---

type mockEmbedder struct {
	vec   []float32
	err   error
	mu    sync.Mutex
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// --- Vector searcher mock ---

type mockSearcher struct {
	dim    int
	hits   []embrepo.Hit
	err    error
	lastK  int
	lastQ  []float32
	called bool
}

func (m *mockSearcher) Dimension() int { return m.dim }

func (m *mockSearcher) Nearest(_ context.Context, q []float32, k int) ([]embrepo.Hit, error) {
	m.called = true
	m.lastK = k
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// --- Catalog mock ---

type mockCatalog struct {
	products   map[int64]domain.Product
	byBrand    map[string][]int64
	idsErr     error
	brandErr   map[string]error
	brandCalls []string
	brandLimit int
}

func (m *mockCatalog) ProductsByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	if m.idsErr != nil {
		return nil, m.idsErr
	}
	var out []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ProductsByBrand(_ context.Context, brand string, limit int) ([]domain.Product, error) {
	m.brandCalls = append(m.brandCalls, brand)
	m.brandLimit = limit
	if err := m.brandErr[brand]; err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, id := range m.byBrand[brand] {
		if len(out) == limit {
			break
		}
		out = append(out, m.products[id])
	}
	return out, nil
}

// --- Fixtures ---

var (
	samsung = &domain.Brand{ID: 1, Name: "Samsung"}
	apple   = &domain.Brand{ID: 2, Name: "Apple"}
	xiaomi  = &domain.Brand{ID: 3, Name: "Xiaomi"}
)

func product(id int64, name string, brand *domain.Brand, amount int64) domain.Product {
	p := domain.Product{ID: id, Name: name, Brand: brand, Description: name + " description"}
	if amount > 0 {
		p.Prices = []domain.Price{{ID: id * 10, Amount: amount, Active: true, StartDate: testNow.AddDate(0, -1, 0)}}
	}
	return p
}

func testCatalog() *mockCatalog {
	products := []domain.Product{
		product(1, "Galaxy S24 Ultra", samsung, 28_990_000),
		product(2, "Galaxy A15", samsung, 4_490_000),
		product(3, "iPhone 15", apple, 19_990_000),
		product(4, "Redmi Note 13", xiaomi, 5_290_000),
		product(5, "Xiaomi 14", xiaomi, 21_990_000),
	}
	c := &mockCatalog{
		products: make(map[int64]domain.Product),
		byBrand: map[string][]int64{
			"Samsung": {1, 2},
			"Apple":   {3},
			"Xiaomi":  {5, 4},
		},
		brandErr: map[string]error{},
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func testBrands() *intent.BrandLookup {
	return intent.NewStaticBrandLookup(intent.NewBrandSnapshot([]domain.Brand{*samsung, *apple, *xiaomi}))
}

func newTestService(emb Embedder, idx VectorSearcher, cat Catalog) *Service {
	brands := testBrands()
	s := New(emb, idx, cat, intent.NewExtractor(brands), brands, Options{}, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func ids(items []domain.RetrievedProduct) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ProductID
	}
	return out
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
