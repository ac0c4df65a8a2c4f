package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
)

func TestRetrieve_BlankQuestion(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0, 0}}
	s := newTestService(emb, &mockSearcher{dim: 3}, testCatalog())

	res := s.Retrieve(context.Background(), "   ", 5)
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("items = %#v, want empty non-nil", res.Items)
	}
	if emb.calls() != 0 {
		t.Error("blank question must not be embedded")
	}
}

func TestRetrieve_VectorHitsJoinedAndRanked(t *testing.T) {
	idx := &mockSearcher{dim: 3, hits: []embrepo.Hit{
		{ProductID: 3, Distance: 0.1},
		{ProductID: 1, Distance: 0.2},
		{ProductID: 2, Distance: 0.3},
	}}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, testCatalog())

	res := s.Retrieve(context.Background(), "samsung dưới 10 triệu", 5)
	if !sameIDs(ids(res.Items), []int64{2, 1, 3}) {
		t.Fatalf("order = %v", ids(res.Items))
	}
	if res.Fallback {
		t.Error("fallback must not run when a hit matches the brand")
	}

	first := res.Items[0]
	if first.Name != "Galaxy A15" || first.Brand != "Samsung" || first.Source != domain.SourceVector {
		t.Errorf("first = %+v", first)
	}
	if first.ActivePrice == nil || *first.ActivePrice != 4_490_000 {
		t.Errorf("active price = %v", first.ActivePrice)
	}
	if first.Distance != 0.3 || first.Description == "" {
		t.Errorf("distance/description not carried: %+v", first)
	}
}

func TestRetrieve_CandidateMultiplierAndFit(t *testing.T) {
	idx := &mockSearcher{dim: 3}
	s := newTestService(&mockEmbedder{vec: []float32{1, 2, 3, 4, 5}}, idx, testCatalog())

	_ = s.Retrieve(context.Background(), "điện thoại pin trâu", 4)
	if idx.lastK != 4*DefaultCandidateMultiplier {
		t.Errorf("k = %d, want %d", idx.lastK, 4*DefaultCandidateMultiplier)
	}
	if len(idx.lastQ) != 3 {
		t.Errorf("query dimension = %d, want 3", len(idx.lastQ))
	}
}

func TestRetrieve_LimitClamp(t *testing.T) {
	s := newTestService(&mockEmbedder{}, &mockSearcher{dim: 3}, testCatalog())
	tests := map[int]int{0: DefaultLimit, -3: DefaultLimit, 7: 7, 500: DefaultMaxLimit}
	for in, want := range tests {
		if got := s.ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRetrieve_EmbeddingFailureIsEmpty(t *testing.T) {
	for _, err := range []error{
		domain.ErrEmbeddingNotConfigured,
		fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError),
		context.DeadlineExceeded,
	} {
		t.Run(err.Error(), func(t *testing.T) {
			idx := &mockSearcher{dim: 3}
			cat := testCatalog()
			s := newTestService(&mockEmbedder{err: err}, idx, cat)

			res := s.Retrieve(context.Background(), "samsung giá rẻ", 5)
			if res.Items == nil || len(res.Items) != 0 {
				t.Errorf("items = %v, want empty", ids(res.Items))
			}
			if idx.called || len(cat.brandCalls) != 0 {
				t.Error("no search or fallback after a failed embedding")
			}
		})
	}
}

func TestRetrieve_EmptyEmbeddingIsEmpty(t *testing.T) {
	idx := &mockSearcher{dim: 3}
	s := newTestService(&mockEmbedder{vec: []float32{}}, idx, testCatalog())
	if res := s.Retrieve(context.Background(), "apple", 5); len(res.Items) != 0 || idx.called {
		t.Errorf("items = %v, searched = %v", ids(res.Items), idx.called)
	}
}

func TestRetrieve_SearchFailureNoBrand(t *testing.T) {
	for _, err := range []error{domain.ErrIndexNotReady, errors.New("connection reset")} {
		idx := &mockSearcher{dim: 3, err: err}
		s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, testCatalog())
		res := s.Retrieve(context.Background(), "điện thoại chơi game", 5)
		if res.Items == nil || len(res.Items) != 0 {
			t.Errorf("%v: items = %v", err, ids(res.Items))
		}
	}
}

func TestRetrieve_FallbackOnEmptyIndex(t *testing.T) {
	cat := testCatalog()
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, cat)

	res := s.Retrieve(context.Background(), "điện thoại Samsung", 5)
	if !res.Fallback {
		t.Fatal("expected fallback")
	}
	if !sameIDs(ids(res.Items), []int64{1, 2}) {
		t.Errorf("items = %v", ids(res.Items))
	}
	for _, it := range res.Items {
		if it.Source != domain.SourceCatalog {
			t.Errorf("source = %q", it.Source)
		}
	}
	if cat.brandLimit != 5*DefaultFallbackOversample {
		t.Errorf("fallback limit = %d", cat.brandLimit)
	}
}

func TestRetrieve_FallbackOnIndexNotReady(t *testing.T) {
	idx := &mockSearcher{dim: 3, err: fmt.Errorf("search: %w", domain.ErrIndexNotReady)}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, testCatalog())

	res := s.Retrieve(context.Background(), "iphone apple", 5)
	if !res.Fallback || !sameIDs(ids(res.Items), []int64{3}) {
		t.Errorf("fallback = %v items = %v", res.Fallback, ids(res.Items))
	}
}

func TestRetrieve_FallbackIgnoresSpecNumbers(t *testing.T) {
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, testCatalog())

	res := s.Retrieve(context.Background(), "apple iphone 15 pro max 512gb", 5)
	if res.Intent.HasPrice() {
		t.Errorf("storage size read as price: %s", res.Intent.Price)
	}
	if !res.Fallback || !sameIDs(ids(res.Items), []int64{3}) {
		t.Errorf("fallback = %v items = %v", res.Fallback, ids(res.Items))
	}
}

func TestRetrieve_FallbackReplacesUnmatchedHits(t *testing.T) {
	idx := &mockSearcher{dim: 3, hits: []embrepo.Hit{{ProductID: 3}, {ProductID: 1}}}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, testCatalog())

	res := s.Retrieve(context.Background(), "xiaomi", 5)
	if !res.Fallback || !sameIDs(ids(res.Items), []int64{5, 4}) {
		t.Errorf("fallback = %v items = %v", res.Fallback, ids(res.Items))
	}
}

func TestRetrieve_FallbackPriceFilterAndOrder(t *testing.T) {
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, testCatalog())

	res := s.Retrieve(context.Background(), "xiaomi hoặc samsung dưới 10 triệu", 5)
	if !sameIDs(ids(res.Items), []int64{4, 2}) {
		t.Errorf("items = %v, want [4 2]", ids(res.Items))
	}
}

func TestRetrieve_FallbackStopsAtLimit(t *testing.T) {
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, testCatalog())

	res := s.Retrieve(context.Background(), "samsung và xiaomi", 3)
	if !sameIDs(ids(res.Items), []int64{1, 2, 5}) {
		t.Errorf("items = %v", ids(res.Items))
	}
}

func TestRetrieve_FallbackBrandErrorSkipsBrand(t *testing.T) {
	cat := testCatalog()
	cat.brandErr["Samsung"] = errors.New("brand removed")
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, cat)

	res := s.Retrieve(context.Background(), "samsung hay apple", 5)
	if !sameIDs(ids(res.Items), []int64{3}) {
		t.Errorf("items = %v", ids(res.Items))
	}
	if len(cat.brandCalls) != 2 {
		t.Errorf("brand calls = %v", cat.brandCalls)
	}
}

func TestRetrieve_FallbackEmptyKeepsRankedHits(t *testing.T) {
	cat := testCatalog()
	cat.byBrand["Apple"] = nil
	idx := &mockSearcher{dim: 3, hits: []embrepo.Hit{{ProductID: 1}, {ProductID: 4}}}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, cat)

	res := s.Retrieve(context.Background(), "apple", 5)
	if res.Fallback || !sameIDs(ids(res.Items), []int64{1, 4}) {
		t.Errorf("fallback = %v items = %v", res.Fallback, ids(res.Items))
	}
}

func TestRetrieve_MissingCatalogRowsSkipped(t *testing.T) {
	idx := &mockSearcher{dim: 3, hits: []embrepo.Hit{{ProductID: 99}, {ProductID: 3}}}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, testCatalog())

	res := s.Retrieve(context.Background(), "điện thoại đẹp", 5)
	if !sameIDs(ids(res.Items), []int64{3}) {
		t.Errorf("items = %v", ids(res.Items))
	}
}

func TestRetrieve_CatalogJoinFailure(t *testing.T) {
	cat := testCatalog()
	cat.idsErr = errors.New("catalog down")
	idx := &mockSearcher{dim: 3, hits: []embrepo.Hit{{ProductID: 3}}}
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, idx, cat)

	res := s.Retrieve(context.Background(), "điện thoại đẹp", 5)
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("items = %v", ids(res.Items))
	}
}

func TestRetrieve_IntentReported(t *testing.T) {
	s := newTestService(&mockEmbedder{vec: []float32{1, 0, 0}}, &mockSearcher{dim: 3}, testCatalog())
	res := s.Retrieve(context.Background(), "Apple tầm trung", 5)
	if !res.Intent.MatchesBrand("apple") || res.Intent.Segment == "" {
		t.Errorf("intent = %+v", res.Intent)
	}
}

func TestBrands(t *testing.T) {
	s := newTestService(&mockEmbedder{}, &mockSearcher{dim: 3}, testCatalog())
	names, err := s.Brands(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 || names[0] != "Apple" {
		t.Errorf("brands = %v", names)
	}
	if names, err = s.RefreshBrands(context.Background()); err != nil || len(names) != 3 {
		t.Errorf("refresh = %v, %v", names, err)
	}
}
