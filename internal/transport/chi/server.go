// Package chi exposes retrieval, answering and index administration over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	domusage "github.com/kailas-cloud/catalogsearch/internal/domain/usage"
	answeruc "github.com/kailas-cloud/catalogsearch/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/catalogsearch/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/catalogsearch/internal/usecase/retrieval"
)

// maxBodyBytes caps request bodies; questions are short.
const maxBodyBytes = 64 << 10

// Searcher is the retrieval facade.
type Searcher interface {
	Retrieve(ctx context.Context, question string, limit int) retrievaluc.Result
	Brands(ctx context.Context) ([]string, error)
	RefreshBrands(ctx context.Context) ([]string, error)
}

// Asker composes answers.
type Asker interface {
	Ask(ctx context.Context, question string, limit int) answeruc.Reply
}

// RebuildRunner controls embedding rebuilds.
type RebuildRunner interface {
	Start()
	RunSync(ctx context.Context) (embeddinguc.Report, error)
	ResetSync(ctx context.Context) (embeddinguc.Report, error)
	Status() embeddinguc.Status
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	Report(ctx context.Context, period domusage.Period) domusage.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	answer        Asker
	rebuild       RebuildRunner
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	answer Asker,
	rebuild RebuildRunner,
	health HealthChecker,
	usage UsageReporter,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		answer:        answer,
		rebuild:       rebuild,
		health:        health,
		usage:         usage,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	res := s.search.Retrieve(r.Context(), req.Question, req.Limit)
	writeJSON(w, http.StatusOK, searchResponse{
		Items:    productsToDTO(res.Items),
		Intent:   intentToDTO(res.Intent),
		Fallback: res.Fallback,
	})
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	reply := s.answer.Ask(r.Context(), req.Question, req.Limit)
	writeJSON(w, http.StatusOK, askResponse{
		Answer: reply.Answer,
		Source: reply.Source,
		Items:  productsToDTO(reply.Items),
	})
}

// Rebuild handles POST /v1/admin/embeddings/rebuild.
// mode=async (default) returns 202 at once; mode=sync waits for the report.
// reset=true drops the index first and always runs synchronously.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("mode")
	reset := q.Get("reset") == "true"

	switch {
	case reset:
		rep, err := s.rebuild.ResetSync(r.Context())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reportToDTO(rep))
	case mode == "" || mode == "async":
		s.rebuild.Start()
		writeJSON(w, http.StatusAccepted, statusToDTO(s.rebuild.Status()))
	case mode == "sync":
		rep, err := s.rebuild.RunSync(r.Context())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reportToDTO(rep))
	default:
		s.handleDomainError(w, fmt.Errorf("mode %q: %w", mode, domain.ErrInvalidRequest))
	}
}

// RebuildStatus handles GET /v1/admin/embeddings/status.
func (s *Server) RebuildStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusToDTO(s.rebuild.Status()))
}

// Usage handles GET /v1/admin/embeddings/usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, usageToDTO(s.usage.Report(r.Context(), period)))
}

// Brands handles GET /v1/brands.
func (s *Server) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.search.Brands(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, brandsResponse{Brands: nonNil(brands)})
}

// RefreshBrands handles POST /v1/admin/brands/refresh.
func (s *Server) RefreshBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.search.RefreshBrands(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, brandsResponse{Brands: nonNil(brands)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return req, false
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must not be negative")
		return req, false
	}
	return req, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
