package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the provider token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingNotConfigured signals that no provider credentials are configured.
	ErrEmbeddingNotConfigured = errors.New("embedding provider not configured")
	// ErrIndexNotReady signals that the vector index has not been created yet.
	ErrIndexNotReady = errors.New("vector index not ready")
	// ErrRebuildInProgress signals that a rebuild is already running.
	ErrRebuildInProgress = errors.New("embedding rebuild in progress")
	// ErrAnswerRefused signals that the answerer declined to respond.
	ErrAnswerRefused = errors.New("answer refused")
)

// ItemError attaches the product id to a per-item failure.
type ItemError struct {
	ProductID int64
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("product %d: %s", e.ProductID, e.Err.Error())
}

func (e *ItemError) Unwrap() error { return e.Err }

// NewItemError wraps err with the product id it belongs to.
func NewItemError(productID int64, err error) error {
	return &ItemError{ProductID: productID, Err: err}
}
