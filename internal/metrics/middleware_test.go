package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newServiceRouter mirrors the shape of the public router: a /v1 group with
// an /admin subgroup behind its own middleware.
func newServiceRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"items":[]}`))
		})
		r.Get("/brands", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"brands":[]}`))
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if req.Header.Get("Authorization") == "" {
						w.WriteHeader(http.StatusUnauthorized)
						return
					}
					next.ServeHTTP(w, req)
				})
			})
			r.Post("/embeddings/rebuild", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			})
			r.Get("/embeddings/status", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.WriteHeader(http.StatusInternalServerError)
			})
		})
	})
	return r
}

func TestMiddleware_LabelsServiceRoutes(t *testing.T) {
	r := newServiceRouter()

	tests := []struct {
		name   string
		method string
		target string
		auth   bool
		label  string
		status string
	}{
		{"health", http.MethodGet, "/health", false, "/health", "200"},
		{"search", http.MethodPost, "/v1/search", false, "/v1/search", "200"},
		{"brands", http.MethodGet, "/v1/brands", false, "/v1/brands", "200"},
		{"rebuild", http.MethodPost, "/v1/admin/embeddings/rebuild", true, "/v1/admin/embeddings/rebuild", "202"},
		{"first status wins", http.MethodGet, "/v1/admin/embeddings/status", true, "/v1/admin/embeddings/status", "409"},
		{"unrouted", http.MethodGet, "/v2/search", false, "unmatched", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.label, tc.status)
			before := testutil.ToFloat64(counter)

			req := httptest.NewRequest(tc.method, tc.target, http.NoBody)
			if tc.auth {
				req.Header.Set("Authorization", "Bearer admin-key")
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("requests_total{%s %s %s} grew by %v, want 1", tc.method, tc.label, tc.status, got)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_PathParamsDoNotExplodeLabels(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/products/{id}", "200")
	before := testutil.ToFloat64(counter)
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/products/"+id, http.NoBody))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("expected all ids under one label, got %v", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/v1/search", "/v1/search"},
		{"/v1/admin/embeddings/usage", "/v1/admin/embeddings/usage"},
	}

	for _, tc := range tests {
		if got := routeLabel(tc.input); got != tc.expected {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
