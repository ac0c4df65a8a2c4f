package budget

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/db"
)

type mockStore struct {
	data   map[string]int64
	ttls   map[string]time.Duration
	getErr error
	incErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(strconv.FormatInt(v, 10)), nil
}

func (m *mockStore) IncrWithTTL(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if m.incErr != nil {
		return 0, m.incErr
	}
	m.data[key] += delta
	if _, ok := m.ttls[key]; !ok {
		m.ttls[key] = ttl
	}
	return m.data[key], nil
}

var testNow = time.Date(2026, 10, 17, 13, 0, 0, 0, time.UTC)

func TestKeys(t *testing.T) {
	s := New(newMockStore(), "cs:", "nebius")
	if got := s.DailyKey(testNow); got != "cs:budget:nebius:daily:2026-10-17" {
		t.Errorf("daily key = %s", got)
	}
	if got := s.MonthlyKey(testNow); got != "cs:budget:nebius:monthly:2026-10" {
		t.Errorf("monthly key = %s", got)
	}
}

func TestLoad_MissingIsZero(t *testing.T) {
	u, err := New(newMockStore(), "cs:", "p").Load(context.Background(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if u.Daily != 0 || u.Monthly != 0 {
		t.Errorf("usage = %+v", u)
	}
}

func TestAdd_AccumulatesAndSetsTTL(t *testing.T) {
	m := newMockStore()
	s := New(m, "cs:", "p")
	ctx := context.Background()

	if _, err := s.Add(ctx, testNow, 10); err != nil {
		t.Fatal(err)
	}
	u, err := s.Add(ctx, testNow, 5)
	if err != nil {
		t.Fatal(err)
	}
	if u.Daily != 15 || u.Monthly != 15 {
		t.Errorf("usage = %+v", u)
	}
	if m.ttls[s.DailyKey(testNow)] != DailyTTL || m.ttls[s.MonthlyKey(testNow)] != MonthlyTTL {
		t.Errorf("ttls = %v", m.ttls)
	}

	loaded, _ := s.Load(ctx, testNow)
	if loaded != u {
		t.Errorf("loaded %+v, want %+v", loaded, u)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	m := newMockStore()
	boom := errors.New("boom")
	m.getErr, m.incErr = boom, boom
	s := New(m, "cs:", "p")

	if _, err := s.Load(context.Background(), testNow); !errors.Is(err, boom) {
		t.Errorf("Load err = %v", err)
	}
	if _, err := s.Add(context.Background(), testNow, 1); !errors.Is(err, boom) {
		t.Errorf("Add err = %v", err)
	}
}
