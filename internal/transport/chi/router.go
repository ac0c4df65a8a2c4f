package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/metrics"
)

// NewRouter mounts the API on a chi router. Admin routes require one of
// adminKeys as a Bearer token; an empty list disables the check.
func NewRouter(s *Server, adminKeys []string, logger *zap.Logger) http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/search", s.Search)
		r.Post("/ask", s.Ask)
		r.Get("/brands", s.Brands)

		r.Route("/admin", func(r chirouter.Router) {
			r.Use(BearerAuthMiddleware(adminKeys))
			r.Post("/embeddings/rebuild", s.Rebuild)
			r.Get("/embeddings/status", s.RebuildStatus)
			r.Get("/embeddings/usage", s.Usage)
			r.Post("/brands/refresh", s.RefreshBrands)
		})
	})
	return r
}
