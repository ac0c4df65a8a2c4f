// Package embedding stores product embeddings and serves nearest-neighbour
// queries over them.
package embedding

import "time"

// Record is one stored embedding, keyed by product id.
type Record struct {
	ProductID  int64
	SourceText string
	Vector     []float32
	UpdatedAt  time.Time
}

// Hit is a nearest-neighbour match.
type Hit struct {
	ProductID int64
	Distance  float64
}
