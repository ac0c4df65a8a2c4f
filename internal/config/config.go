package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the catalogsearch configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Answer      AnswerConfig      `yaml:"answer"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// VectorStoreConfig holds vector index settings.
type VectorStoreConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Metric           string   `yaml:"metric"` // cosine, l2 (default: cosine)
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// CatalogConfig holds SQL catalog settings.
type CatalogConfig struct {
	Driver       string `yaml:"driver"` // postgres, sqlite3
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	SeedFile     string `yaml:"seed_file"` // optional YAML fixture applied at startup
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey
// disables semantic search.
type EmbeddingConfig struct {
	Provider       string       `yaml:"provider"`
	APIKey         string       `yaml:"api_key"`
	BaseURL        string       `yaml:"base_url"`
	Model          string       `yaml:"model"`
	Dimensions     int          `yaml:"dimensions"`
	TimeoutSec     int          `yaml:"timeout_sec"`
	RequestsPerSec float64      `yaml:"requests_per_second"` // rebuild throttle, 0 = unlimited
	Burst          int          `yaml:"burst"`
	CacheTTLSec    int          `yaml:"cache_ttl_sec"` // query cache, 0 = disabled
	RebuildOnStart bool         `yaml:"rebuild_on_start"`
	QueryPrefix    string       `yaml:"query_instruction"`
	DocumentPrefix string       `yaml:"document_instruction"`
	Budget         BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// AnswerConfig holds the generative answerer settings. When disabled the
// deterministic product list is returned.
type AnswerConfig struct {
	Enabled     bool    `yaml:"enabled"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// RetrievalConfig holds ranking and intent settings.
type RetrievalConfig struct {
	DefaultLimit         int     `yaml:"default_limit"`
	MaxLimit             int     `yaml:"max_limit"`
	CandidateMultiplier  int     `yaml:"candidate_multiplier"`
	FallbackOversample   int     `yaml:"fallback_oversample"`
	LargeNumberThreshold float64 `yaml:"large_number_threshold"`
	PricePolicy          string  `yaml:"price_policy"` // latest_start, earliest_start, lowest_amount
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies
// defaults and validation.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	vs := &c.VectorStore
	if vs.Driver == "" {
		vs.Driver = "redis"
	}
	if vs.ReadinessTimeout <= 0 {
		vs.ReadinessTimeout = 10
	}
	if vs.IndexName == "" {
		vs.IndexName = "idx:products"
	}
	if vs.KeyPrefix == "" {
		vs.KeyPrefix = "catalogsearch:"
	}
	if vs.Metric == "" {
		vs.Metric = "cosine"
	}
	if vs.HNSWM <= 0 {
		vs.HNSWM = 16
	}
	if vs.HNSWEFConstruct <= 0 {
		vs.HNSWEFConstruct = 200
	}

	if c.Catalog.MaxOpenConns <= 0 {
		c.Catalog.MaxOpenConns = 10
	}

	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		e.Model = "text-embedding-3-small"
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
	if e.Burst <= 0 {
		e.Burst = 1
	}
	if e.Budget.Action == "" {
		e.Budget.Action = "warn"
	}

	a := &c.Answer
	if a.APIKey == "" {
		a.APIKey = e.APIKey
	}
	if a.BaseURL == "" {
		a.BaseURL = e.BaseURL
	}
	if a.Model == "" {
		a.Model = "gpt-4o-mini"
	}
	if a.TimeoutSec <= 0 {
		a.TimeoutSec = 30
	}
	if a.MaxTokens <= 0 {
		a.MaxTokens = 600
	}

	r := &c.Retrieval
	if r.DefaultLimit <= 0 {
		r.DefaultLimit = 5
	}
	if r.MaxLimit <= 0 {
		r.MaxLimit = 20
	}
	if r.CandidateMultiplier <= 0 {
		r.CandidateMultiplier = 3
	}
	if r.FallbackOversample <= 0 {
		r.FallbackOversample = 2
	}
	if r.LargeNumberThreshold <= 0 {
		r.LargeNumberThreshold = 300
	}
	if r.PricePolicy == "" {
		r.PricePolicy = "latest_start"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.VectorStore.Driver {
	case "redis":
		if len(c.VectorStore.Addrs) == 0 {
			return fmt.Errorf("vector_store.addrs is required for driver redis")
		}
	case "memory":
	default:
		return fmt.Errorf("vector_store.driver must be \"redis\" or \"memory\", got %q", c.VectorStore.Driver)
	}
	switch c.VectorStore.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("vector_store.metric must be \"cosine\" or \"l2\", got %q", c.VectorStore.Metric)
	}

	switch c.Catalog.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("catalog.driver must be \"postgres\" or \"sqlite3\", got %q", c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}

	switch c.Embedding.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if c.Embedding.RequestsPerSec < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative")
	}

	if c.Retrieval.DefaultLimit > c.Retrieval.MaxLimit {
		return fmt.Errorf("retrieval.default_limit (%d) exceeds retrieval.max_limit (%d)",
			c.Retrieval.DefaultLimit, c.Retrieval.MaxLimit)
	}
	switch c.Retrieval.PricePolicy {
	case "latest_start", "earliest_start", "lowest_amount":
	default:
		return fmt.Errorf("retrieval.price_policy %q is not supported", c.Retrieval.PricePolicy)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
