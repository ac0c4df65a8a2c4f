package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		HTTP:        config.HTTPConfig{Port: 8080},
		VectorStore: config.VectorStoreConfig{Driver: "memory"},
		Catalog: config.CatalogConfig{
			Driver:   "sqlite3",
			DSN:      "file:" + filepath.Join(t.TempDir(), "catalog.db"),
			SeedFile: filepath.Join("..", "..", "config", "catalog.seed.yaml"),
		},
		Auth: config.AuthConfig{APIKeys: []string{"admin-key"}},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(t.Context(), testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_SeedsCatalogAndServesBrands(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodGet, "/v1/brands", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var got struct {
		Brands []string `json:"brands"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := []string{"Apple", "OPPO", "Samsung", "Xiaomi"}
	if strings.Join(got.Brands, ",") != strings.Join(want, ",") {
		t.Errorf("brands = %v, want %v", got.Brands, want)
	}
}

func TestNew_WithoutProviderSearchIsEmpty(t *testing.T) {
	a := newTestApp(t)

	res := a.Retrieval.Retrieve(t.Context(), "điện thoại Samsung dưới 10 triệu", 0)
	if len(res.Items) != 0 || res.Fallback {
		t.Errorf("items = %+v, fallback = %v", res.Items, res.Fallback)
	}
	if len(res.Intent.Brands) != 1 || res.Intent.Brands[0].Display != "Samsung" {
		t.Errorf("intent brands = %+v", res.Intent.Brands)
	}
	if res.Intent.Price.Max == nil || *res.Intent.Price.Max != 10 {
		t.Errorf("intent price = %s", res.Intent.Price)
	}
}

func TestNew_AskFallsBackWithoutAnswerer(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodPost, "/v1/ask", `{"question":"điện thoại giá rẻ"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var got struct {
		Answer string `json:"answer"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Source != "fallback" || got.Answer == "" {
		t.Errorf("reply = %+v", got)
	}
}

func TestNew_HealthDegradedBeforeRebuild(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "degraded" {
		t.Errorf("status = %q", got.Status)
	}
	if got.Checks["catalog"] != "ok" || got.Checks["vector_index"] != "empty" || got.Checks["embedding"] != "disabled" {
		t.Errorf("checks = %v", got.Checks)
	}
}

func TestNew_AdminRequiresKey(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodGet, "/v1/admin/embeddings/status", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestNew_RejectsUnknownPricePolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrieval.PricePolicy = "cheapest"
	if _, err := New(t.Context(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_BadCatalogDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Driver = "mysql"
	if _, err := New(t.Context(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}
