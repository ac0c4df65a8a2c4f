// Package app wires configuration into the running services. The HTTP
// server and the admin CLI share it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/config"
	dbRedis "github.com/kailas-cloud/catalogsearch/internal/db/redis"
	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
	"github.com/kailas-cloud/catalogsearch/internal/domain/sourcetext"
	"github.com/kailas-cloud/catalogsearch/internal/domain/vector"
	"github.com/kailas-cloud/catalogsearch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/catalogsearch/internal/repository/budget"
	"github.com/kailas-cloud/catalogsearch/internal/repository/catalog"
	"github.com/kailas-cloud/catalogsearch/internal/repository/embcache"
	embrepo "github.com/kailas-cloud/catalogsearch/internal/repository/embedding"
	chiTransport "github.com/kailas-cloud/catalogsearch/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/catalogsearch/internal/transport/openai"
	answeruc "github.com/kailas-cloud/catalogsearch/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/catalogsearch/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/catalogsearch/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/catalogsearch/internal/usecase/usage"
)

// VectorIndex is the product index as used by both the pipeline and retrieval.
type VectorIndex interface {
	embeddinguc.VectorIndex
	retrievaluc.VectorSearcher
}

// App holds the wired services.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Catalog   *catalog.Repo
	Index     VectorIndex
	Brands    *intent.BrandLookup
	Retrieval *retrievaluc.Service
	Answer    *answeruc.Service
	Pipeline  *embeddinguc.Pipeline
	Runner    *embeddinguc.Runner
	Health    *healthuc.Service
	Usage     *usageuc.Service

	cancel  context.CancelFunc
	closers []func()
}

// New connects the stores and builds every service.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *App, err error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterRebuildMetrics()

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	conn, err := openCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	a.Catalog = catalog.New(conn)

	var store *dbRedis.Store
	if cfg.VectorStore.Driver == "redis" {
		store, err = openRedis(ctx, cfg.VectorStore)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		logger.Info("Connected to vector store", zap.Strings("addrs", cfg.VectorStore.Addrs))
	}

	a.Index, err = newIndex(cfg, store)
	if err != nil {
		return nil, err
	}

	// Nil interfaces, not typed nil pointers, keep budget enforcement and
	// usage reporting in unlimited mode.
	var (
		budget      embeddinguc.BudgetChecker
		budgetUsage usageuc.BudgetReader
	)
	if tracker := newBudget(ctx, cfg.Embedding, cfg.VectorStore.KeyPrefix, store, logger); tracker != nil {
		budget, budgetUsage = tracker, tracker
	}
	a.Usage = usageuc.New(budgetUsage)

	docEmbedder, healthChecker := buildEmbedder(cfg, cfg.Embedding.DocumentPrefix, nil, budget, logger)
	queryEmbedder, _ := buildEmbedder(cfg, cfg.Embedding.QueryPrefix, store, budget, logger)
	if healthChecker == nil {
		logger.Warn("Embedding provider not configured, semantic search disabled")
	}

	policy, err := pricing.ParsePolicy(cfg.Retrieval.PricePolicy)
	if err != nil {
		return nil, fmt.Errorf("retrieval config: %w", err)
	}

	a.Brands = intent.NewBrandLookup(a.Catalog)
	extractor := intent.NewExtractor(a.Brands, intent.WithLargeNumberThreshold(cfg.Retrieval.LargeNumberThreshold))
	a.Retrieval = retrievaluc.New(queryEmbedder, a.Index, a.Catalog, extractor, a.Brands, retrievaluc.Options{
		DefaultLimit:        cfg.Retrieval.DefaultLimit,
		MaxLimit:            cfg.Retrieval.MaxLimit,
		CandidateMultiplier: cfg.Retrieval.CandidateMultiplier,
		FallbackOversample:  cfg.Retrieval.FallbackOversample,
		EmbedTimeout:        time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		PricePolicy:         policy,
	}, logger)

	var answerer answeruc.Answerer
	if cfg.Answer.Enabled && cfg.Answer.APIKey != "" {
		answerer = openaiTransport.NewAnswerer(&openaiTransport.AnswererConfig{
			Config: openaiTransport.Config{
				APIKey:  cfg.Answer.APIKey,
				BaseURL: cfg.Answer.BaseURL,
				Model:   cfg.Answer.Model,
				Logger:  logger,
			},
			MaxTokens:   cfg.Answer.MaxTokens,
			Temperature: cfg.Answer.Temperature,
		})
	}
	a.Answer = answeruc.New(a.Retrieval, answerer, time.Duration(cfg.Answer.TimeoutSec)*time.Second, logger)

	synth := sourcetext.New(policy)
	a.Pipeline = embeddinguc.NewPipeline(a.Catalog, a.Index, synth, docEmbedder, logger).
		WithItemTimeout(time.Duration(cfg.Embedding.TimeoutSec) * time.Second).
		WithRateLimit(cfg.Embedding.RequestsPerSec, cfg.Embedding.Burst)

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.Runner = embeddinguc.NewRunner(base, a.Pipeline, logger)

	var embCheck healthuc.EmbeddingChecker
	if healthChecker != nil {
		embCheck = healthChecker
	}
	a.Health = healthuc.New(a.Catalog, a.Index, embCheck)

	return a, nil
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	srv := chiTransport.NewServer(a.Retrieval, a.Answer, a.Runner, a.Health, a.Usage, a.Logger)
	return chiTransport.NewRouter(srv, a.Config.Auth.APIKeys, a.Logger)
}

// Close stops background rebuilds and releases connections.
func (a *App) Close() {
	if a.Runner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.Runner.Stop(ctx)
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*sql.DB, error) {
	conn, err := catalog.Open(cfg.Driver, cfg.DSN, cfg.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	if cfg.SeedFile != "" {
		if err := SeedCatalog(ctx, conn, cfg.SeedFile); err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("Catalog seeded", zap.String("file", cfg.SeedFile))
	}
	return conn, nil
}

// SeedCatalog creates missing catalog tables and loads a YAML fixture.
func SeedCatalog(ctx context.Context, conn catalog.DB, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	fixture, err := catalog.LoadFixture(f)
	if err != nil {
		return fmt.Errorf("seed file %s: %w", path, err)
	}
	if err := catalog.Migrate(ctx, conn); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	if err := catalog.Seed(ctx, conn, fixture); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func openRedis(ctx context.Context, cfg config.VectorStoreConfig) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("vector store not ready: %w", err)
	}
	return store, nil
}

func newIndex(cfg config.Config, store *dbRedis.Store) (VectorIndex, error) {
	metric, err := vector.ParseMetric(cfg.VectorStore.Metric)
	if err != nil {
		return nil, fmt.Errorf("vector_store config: %w", err)
	}
	dim := cfg.Embedding.Dimensions

	if store == nil {
		return embrepo.NewMemoryIndex(dim, metric), nil
	}
	return embrepo.NewRedisIndex(store, cfg.VectorStore.IndexName, cfg.VectorStore.KeyPrefix, dim, metric).
		WithHNSW(embrepo.HNSWConfig{
			M:           cfg.VectorStore.HNSWM,
			EFConstruct: cfg.VectorStore.HNSWEFConstruct,
		}), nil
}

// newBudget returns nil when no limit is configured. The tracker is shared
// by every embedder so rebuilds and queries draw from one budget.
func newBudget(
	ctx context.Context, cfg config.EmbeddingConfig, keyPrefix string,
	store *dbRedis.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.Budget.DailyTokenLimit <= 0 && cfg.Budget.MonthlyTokenLimit <= 0 {
		return nil
	}
	action, err := embeddinguc.ParseBudgetAction(cfg.Budget.Action)
	if err != nil {
		action = embeddinguc.BudgetActionWarn
	}
	tracker := embeddinguc.NewBudgetTracker(
		cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
	)
	if store != nil {
		tracker.WithStore(ctx, budgetrepo.New(store, keyPrefix, cfg.Provider))
	}
	return tracker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// cacheStore enables the query cache. The returned checker is nil when no
// provider is configured.
func buildEmbedder(
	cfg config.Config,
	instruction string,
	cacheStore *dbRedis.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) (domain.Embedder, *embeddingHealthChecker) {
	ec := cfg.Embedding
	if ec.APIKey == "" {
		return domain.DisabledEmbedder{}, nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Provider:   ec.Provider,
		Dimensions: ec.Dimensions,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cacheStore != nil && ec.CacheTTLSec > 0 {
		embedder = embcache.New(base, cacheStore, embcache.Options{
			KeyPrefix: cfg.VectorStore.KeyPrefix,
			Model:     ec.Model + "|" + instruction,
			TTL:       time.Duration(ec.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, budget, logger)

	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder, &embeddingHealthChecker{embedder: base}
}

// embeddingHealthChecker adapts a provider to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
