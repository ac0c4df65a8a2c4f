package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
)

// MemoryIndex is an exact, brute-force index kept in process memory.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[int64]Record
	dim     int
	metric  vector.Metric
	now     func() time.Time
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(dim int, metric vector.Metric) *MemoryIndex {
	return &MemoryIndex{
		records: make(map[int64]Record),
		dim:     dim,
		metric:  metric,
		now:     time.Now,
	}
}

// Dimension returns the configured vector dimension.
func (m *MemoryIndex) Dimension() int { return m.dim }

// EnsureIndex is a no-op for the in-memory index.
func (m *MemoryIndex) EnsureIndex(context.Context) error { return nil }

// Upsert stores or replaces the record for its product.
func (m *MemoryIndex) Upsert(_ context.Context, rec Record) error {
	if len(rec.Vector) != m.dim {
		return fmt.Errorf("vector has %d dimensions, index expects %d: %w",
			len(rec.Vector), m.dim, domain.ErrInvalidRequest)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = m.now()
	}
	rec.Vector = append([]float32(nil), rec.Vector...)

	m.mu.Lock()
	m.records[rec.ProductID] = rec
	m.mu.Unlock()
	return nil
}

// Get returns the stored record of a product.
func (m *MemoryIndex) Get(_ context.Context, productID int64) (Record, error) {
	m.mu.RLock()
	rec, ok := m.records[productID]
	m.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("embedding %d: %w", productID, domain.ErrNotFound)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (m *MemoryIndex) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Nearest returns up to k products ordered by ascending distance, ties
// broken by product id.
func (m *MemoryIndex) Nearest(_ context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	query = vector.Fit(query, m.dim)

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.records))
	for id, rec := range m.records {
		hits = append(hits, Hit{ProductID: id, Distance: m.metric.Distance(query, rec.Vector)})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ProductID < hits[j].ProductID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Reset removes all records.
func (m *MemoryIndex) Reset(context.Context) error {
	m.mu.Lock()
	m.records = make(map[int64]Record)
	m.mu.Unlock()
	return nil
}
