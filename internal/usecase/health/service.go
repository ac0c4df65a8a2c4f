package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; retrieval still answers, possibly empty.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckEmpty indicates a reachable vector index with no records.
	CheckEmpty CheckResult = "empty"
	// CheckDisabled indicates a component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Component names.
const (
	ComponentCatalog   = "catalog"
	ComponentIndex     = "vector_index"
	ComponentEmbedding = "embedding"
)

const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog   Pinger
	index     IndexCounter
	embedding EmbeddingChecker
}

// New creates a Service. embedding is nil when no provider is configured.
func New(catalog Pinger, index IndexCounter, embedding EmbeddingChecker) *Service {
	return &Service{catalog: catalog, index: index, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	checks[ComponentCatalog] = probe(ctx, s.catalog.Ping)

	checks[ComponentIndex] = s.checkIndex(ctx)

	if s.embedding == nil {
		checks[ComponentEmbedding] = CheckDisabled
	} else {
		checks[ComponentEmbedding] = probe(ctx, s.embedding.HealthCheck)
	}

	status := Healthy
	for name, v := range checks {
		switch {
		case name == ComponentCatalog && v == CheckError:
			return Report{Status: Unhealthy, Checks: checks}
		case v != CheckOK:
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkIndex(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	n, err := s.index.Count(ctx)
	switch {
	case err != nil:
		return CheckError
	case n == 0:
		return CheckEmpty
	default:
		return CheckOK
	}
}

func probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
