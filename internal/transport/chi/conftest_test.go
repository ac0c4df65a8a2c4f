package chi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/batch"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	domusage "github.com/kailas-cloud/catalogsearch/internal/domain/usage"
	answeruc "github.com/kailas-cloud/catalogsearch/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/catalogsearch/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/catalogsearch/internal/usecase/retrieval"
)

// --- Mocks ---

type mockSearcher struct {
	mu         sync.Mutex
	result     retrievaluc.Result
	brands     []string
	brandsErr  error
	refreshErr error
	question   string
	limit      int
	refreshed  bool
}

func (m *mockSearcher) Retrieve(_ context.Context, question string, limit int) retrievaluc.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.question, m.limit = question, limit
	return m.result
}

func (m *mockSearcher) Brands(_ context.Context) ([]string, error) {
	return m.brands, m.brandsErr
}

func (m *mockSearcher) RefreshBrands(_ context.Context) ([]string, error) {
	m.refreshed = true
	return m.brands, m.refreshErr
}

type mockAsker struct {
	reply answeruc.Reply
}

func (m *mockAsker) Ask(_ context.Context, _ string, _ int) answeruc.Reply { return m.reply }

type mockRunner struct {
	started  int
	syncs    int
	resets   int
	report   embeddinguc.Report
	err      error
	resetErr error
	status   embeddinguc.Status
}

func (m *mockRunner) Start() { m.started++ }

func (m *mockRunner) RunSync(_ context.Context) (embeddinguc.Report, error) {
	m.syncs++
	return m.report, m.err
}

func (m *mockRunner) ResetSync(_ context.Context) (embeddinguc.Report, error) {
	m.resets++
	return m.report, m.resetErr
}

func (m *mockRunner) Status() embeddinguc.Status { return m.status }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	period domusage.Period
}

func (m *mockUsage) Report(_ context.Context, period domusage.Period) domusage.Report {
	m.period = period
	start := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(period, start, start.AddDate(0, 0, 1), 10000, 2500, 7500)
}

// --- Fixtures ---

type testDeps struct {
	search *mockSearcher
	ask    *mockAsker
	runner *mockRunner
	health *mockHealth
	usage  *mockUsage
}

func newTestDeps() *testDeps {
	price := int64(19_990_000)
	items := []domain.RetrievedProduct{
		{ProductID: 3, Name: "iPhone 15", Brand: "Apple", ActivePrice: &price, Distance: 0.12, Source: domain.SourceVector},
		{ProductID: 9, Name: "Nokia 105", Source: domain.SourceCatalog},
	}
	snap := intent.NewBrandSnapshot([]domain.Brand{{ID: 2, Name: "Apple"}})
	q := intent.NewExtractor(nil).ExtractWith(snap, "apple dưới 20 triệu")

	return &testDeps{
		search: &mockSearcher{
			result: retrievaluc.Result{Items: items, Intent: q},
			brands: []string{"Apple", "Samsung"},
		},
		ask: &mockAsker{reply: answeruc.Reply{Answer: "iPhone 15 phù hợp.", Source: answeruc.SourceGenerated, Items: items}},
		runner: &mockRunner{report: embeddinguc.Report{
			Total:    3,
			Items:    batch.Tally{OK: 2, Failed: 1},
			Failures: []batch.Result{batch.NewError(7, domain.ErrEmbeddingProviderError)},
		}},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentCatalog: healthuc.CheckOK},
		}},
		usage: &mockUsage{},
	}
}

func (d *testDeps) router(adminKeys ...string) http.Handler {
	srv := NewServer(d.search, d.ask, d.runner, d.health, d.usage, zap.NewNop())
	return NewRouter(srv, adminKeys, zap.NewNop())
}

func newTestLogger() *zap.Logger { return zap.NewNop() }
