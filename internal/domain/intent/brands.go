package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

// BrandMatch is a brand recognised in a question.
type BrandMatch struct {
	Display    string `json:"display"`
	Normalized string `json:"normalized"`
}

// BrandSnapshot is an immutable normalized-name to display-name table.
type BrandSnapshot struct {
	byNorm map[string]string
	keys   []string
}

// NewBrandSnapshot builds a snapshot from catalog brands. Blank names are
// skipped; for duplicate normalized names the first display name wins.
func NewBrandSnapshot(brands []domain.Brand) *BrandSnapshot {
	s := &BrandSnapshot{byNorm: make(map[string]string, len(brands))}
	for _, b := range brands {
		n := Normalize(b.Name)
		if n == "" {
			continue
		}
		if _, ok := s.byNorm[n]; ok {
			continue
		}
		s.byNorm[n] = strings.TrimSpace(b.Name)
		s.keys = append(s.keys, n)
	}
	sort.Strings(s.keys)
	return s
}

// Len returns the number of brands in the snapshot.
func (s *BrandSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Names returns the display names ordered by normalized name.
func (s *BrandSnapshot) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.byNorm[k])
	}
	return out
}

// Match returns every brand whose normalized name occurs in the normalized
// question, ordered by first occurrence and deduplicated.
func (s *BrandSnapshot) Match(normalized string) []BrandMatch {
	if s == nil || normalized == "" {
		return nil
	}

	type hit struct {
		pos int
		key string
	}
	var hits []hit
	for _, k := range s.keys {
		if pos := strings.Index(normalized, k); pos >= 0 {
			hits = append(hits, hit{pos: pos, key: k})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]BrandMatch, 0, len(hits))
	for _, h := range hits {
		out = append(out, BrandMatch{Display: s.byNorm[h.key], Normalized: h.key})
	}
	return out
}

// BrandSource lists catalog brands.
type BrandSource interface {
	ListBrands(ctx context.Context) ([]domain.Brand, error)
}

// BrandLookup holds the current brand snapshot. Readers always observe a
// complete snapshot; Refresh replaces it in one atomic store.
type BrandLookup struct {
	source BrandSource
	snap   atomic.Pointer[BrandSnapshot]
}

// NewBrandLookup creates a lookup that lazily loads brands from source.
func NewBrandLookup(source BrandSource) *BrandLookup {
	return &BrandLookup{source: source}
}

// NewStaticBrandLookup creates a lookup preloaded with a fixed snapshot.
func NewStaticBrandLookup(snap *BrandSnapshot) *BrandLookup {
	l := &BrandLookup{}
	l.snap.Store(snap)
	return l
}

// Snapshot returns the current snapshot, building it on first use.
// When the first build fails an empty snapshot is returned with the error
// and the next call retries.
func (l *BrandLookup) Snapshot(ctx context.Context) (*BrandSnapshot, error) {
	if s := l.snap.Load(); s != nil {
		return s, nil
	}
	s, err := l.Refresh(ctx)
	if err != nil {
		return NewBrandSnapshot(nil), err
	}
	return s, nil
}

// Refresh reloads brands from the source and swaps in a new snapshot.
// On error the previous snapshot stays in place.
func (l *BrandLookup) Refresh(ctx context.Context) (*BrandSnapshot, error) {
	if l.source == nil {
		if s := l.snap.Load(); s != nil {
			return s, nil
		}
		return NewBrandSnapshot(nil), nil
	}
	brands, err := l.source.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	s := NewBrandSnapshot(brands)
	l.snap.Store(s)
	return s, nil
}
