package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/db"
	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
)

func TestRedisIndex_EnsureIndex_CreatesWhenMissing(t *testing.T) {
	s := newMockStore()
	s.indexExistsFn = func(context.Context, string) (bool, error) { return false, nil }

	var created *db.IndexDefinition
	s.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	r := NewRedisIndex(s, "cs-emb", "cs:", 8, vector.MetricL2).WithHNSW(HNSWConfig{M: 32})
	if err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected FT.CREATE")
	}
	if created.Prefixes[0] != "cs:emb:" {
		t.Errorf("prefix = %q", created.Prefixes[0])
	}
	vec := created.Fields[len(created.Fields)-1]
	if vec.VectorDim != 8 || vec.VectorDistance != db.DistanceL2 || vec.VectorM != 32 || vec.VectorEFConstruct != 200 {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestRedisIndex_EnsureIndex_ExistingIsNoop(t *testing.T) {
	s := newMockStore()
	s.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		t.Fatal("must not create an existing index")
		return nil
	}
	if err := NewRedisIndex(s, "idx", "", 4, vector.MetricCosine).EnsureIndex(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRedisIndex_EnsureIndex_RaceIsTolerated(t *testing.T) {
	s := newMockStore()
	s.indexExistsFn = func(context.Context, string) (bool, error) { return false, nil }
	s.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }
	if err := NewRedisIndex(s, "idx", "", 4, vector.MetricCosine).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ErrIndexExists must be tolerated, got %v", err)
	}
}

func TestRedisIndex_UpsertIsIdempotent(t *testing.T) {
	s := newMockStore()
	r := NewRedisIndex(s, "idx", "cs:", 3, vector.MetricCosine)
	ctx := context.Background()

	first := time.UnixMilli(1_700_000_000_000)
	second := first.Add(time.Second)

	if err := r.Upsert(ctx, Record{ProductID: 5, SourceText: "A", Vector: []float32{1, 2, 3}, UpdatedAt: first}); err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(ctx, Record{ProductID: 5, SourceText: "A", Vector: []float32{3, 2, 1}, UpdatedAt: second}); err != nil {
		t.Fatal(err)
	}

	n, _ := r.Count(ctx)
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	rec, err := r.Get(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.UpdatedAt.Equal(second) || rec.Vector[0] != 3 {
		t.Errorf("record not overwritten: %+v", rec)
	}
	if _, ok := s.hashes["cs:emb:5"]; !ok {
		t.Error("expected key cs:emb:5")
	}
}

func TestRedisIndex_UpsertRejectsWrongDimension(t *testing.T) {
	r := NewRedisIndex(newMockStore(), "idx", "", 3, vector.MetricCosine)
	err := r.Upsert(context.Background(), Record{ProductID: 1, Vector: []float32{1}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRedisIndex_GetMissing(t *testing.T) {
	r := NewRedisIndex(newMockStore(), "idx", "", 3, vector.MetricCosine)
	if _, err := r.Get(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisIndex_CountMissingIndexIsZero(t *testing.T) {
	s := newMockStore()
	s.searchCountFn = func(context.Context, string, string) (int, error) { return 0, db.ErrIndexNotFound }
	n, err := NewRedisIndex(s, "idx", "", 3, vector.MetricCosine).Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestRedisIndex_Nearest(t *testing.T) {
	s := newMockStore()
	var got *db.KNNQuery
	s.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
			{Key: "cs:emb:2", Distance: 0.05, Fields: map[string]string{"product_id": "2"}},
			{Key: "cs:emb:x", Distance: 0.1, Fields: map[string]string{"product_id": "bad"}},
			{Key: "cs:emb:9", Distance: 0.3, Fields: map[string]string{"product_id": "9"}},
		}}, nil
	}

	r := NewRedisIndex(s, "idx", "cs:", 4, vector.MetricCosine)
	hits, err := r.Nearest(context.Background(), []float32{1, 2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Vector) != 4 {
		t.Errorf("query vector must be fitted to 4 dims, got %d", len(got.Vector))
	}
	if len(hits) != 2 || hits[0].ProductID != 2 || hits[1].ProductID != 9 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestRedisIndex_NearestMissingIndex(t *testing.T) {
	s := newMockStore()
	s.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, db.ErrIndexNotFound
	}
	_, err := NewRedisIndex(s, "idx", "", 2, vector.MetricCosine).Nearest(context.Background(), []float32{1, 0}, 1)
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestRedisIndex_Reset(t *testing.T) {
	s := newMockStore()
	var dd bool
	s.dropIndexFn = func(_ context.Context, _ string, deleteDocs bool) error {
		dd = deleteDocs
		return db.ErrIndexNotFound
	}
	if err := NewRedisIndex(s, "idx", "", 2, vector.MetricCosine).Reset(context.Background()); err != nil {
		t.Fatalf("missing index must not fail reset: %v", err)
	}
	if !dd {
		t.Error("reset must delete documents")
	}
}
