package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/db"
	dbredis "github.com/kailas-cloud/catalogsearch/internal/db/redis"
	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
)

// Hash field names of an embedding record.
const (
	fieldProductID  = "product_id"
	fieldSourceText = "source_text"
	fieldVector     = "vector"
	fieldUpdatedAt  = "updated_at"
)

// store is the consumer interface for the embedding index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// RedisIndex keeps one HASH per product under <prefix>emb:<id> and an FT
// vector index over that prefix.
type RedisIndex struct {
	store  store
	index  string
	prefix string
	dim    int
	metric vector.Metric
	hnsw   HNSWConfig
}

// NewRedisIndex creates a Redis-backed embedding index.
func NewRedisIndex(s store, index, keyPrefix string, dim int, metric vector.Metric) *RedisIndex {
	return &RedisIndex{
		store:  s,
		index:  index,
		prefix: keyPrefix + "emb:",
		dim:    dim,
		metric: metric,
		hnsw:   HNSWConfig{M: 16, EFConstruct: 200},
	}
}

// WithHNSW configures HNSW index parameters.
func (r *RedisIndex) WithHNSW(cfg HNSWConfig) *RedisIndex {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Dimension returns the configured vector dimension.
func (r *RedisIndex) Dimension() int { return r.dim }

// EnsureIndex creates the FT index when it does not exist yet.
func (r *RedisIndex) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.index, err)
	}
	if exists {
		return nil
	}

	distance := db.DistanceCosine
	if r.metric == vector.MetricL2 {
		distance = db.DistanceL2
	}
	def, err := db.NewIndex(r.index).
		Prefix(r.prefix).
		Numeric(fieldProductID).
		Numeric(fieldUpdatedAt).
		VectorHNSW(fieldVector, r.dim, distance, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	return nil
}

// Upsert writes the record in a single HSET; a second call for the same
// product overwrites text, vector and timestamp.
func (r *RedisIndex) Upsert(ctx context.Context, rec Record) error {
	if len(rec.Vector) != r.dim {
		return fmt.Errorf("vector has %d dimensions, index expects %d: %w",
			len(rec.Vector), r.dim, domain.ErrInvalidRequest)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	fields := map[string]string{
		fieldProductID:  strconv.FormatInt(rec.ProductID, 10),
		fieldSourceText: rec.SourceText,
		fieldVector:     dbredis.VectorToBytes(rec.Vector),
		fieldUpdatedAt:  strconv.FormatInt(rec.UpdatedAt.UnixMilli(), 10),
	}
	if err := r.store.HSet(ctx, r.key(rec.ProductID), fields); err != nil {
		return fmt.Errorf("upsert embedding %d: %w", rec.ProductID, err)
	}
	return nil
}

// Get returns the stored record of a product.
func (r *RedisIndex) Get(ctx context.Context, productID int64) (Record, error) {
	m, err := r.store.HGetAll(ctx, r.key(productID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Record{}, fmt.Errorf("embedding %d: %w", productID, domain.ErrNotFound)
		}
		return Record{}, fmt.Errorf("get embedding %d: %w", productID, err)
	}

	ms, _ := strconv.ParseInt(m[fieldUpdatedAt], 10, 64)
	return Record{
		ProductID:  productID,
		SourceText: m[fieldSourceText],
		Vector:     dbredis.BytesToVector(m[fieldVector]),
		UpdatedAt:  time.UnixMilli(ms),
	}, nil
}

// Count returns the number of stored records. A missing index counts as empty.
func (r *RedisIndex) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.index, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

// Nearest returns up to k products ordered by ascending distance to query.
func (r *RedisIndex) Nearest(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != r.dim {
		query = vector.Fit(query, r.dim)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.index,
		Field:        fieldVector,
		Vector:       query,
		K:            k,
		ReturnFields: []string{fieldProductID},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %s: %w", r.index, domain.ErrIndexNotReady)
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, err := strconv.ParseInt(e.Fields[fieldProductID], 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ProductID: id, Distance: e.Distance})
	}
	return hits, nil
}

// Reset drops the index together with all stored records.
func (r *RedisIndex) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.index, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.index, err)
	}
	return nil
}

func (r *RedisIndex) key(productID int64) string {
	return r.prefix + strconv.FormatInt(productID, 10)
}
