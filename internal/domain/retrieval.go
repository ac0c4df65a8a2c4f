package domain

// RetrievedProduct is one entry of a retrieval result list. ActivePrice is nil
// when the product has no active price.
type RetrievedProduct struct {
	ProductID   int64
	Name        string
	Brand       string
	ActivePrice *int64
	Description string
	// Distance is the vector distance of the hit; zero for catalog fallback rows.
	Distance float64
	// Source is "vector" for index hits and "catalog" for fallback rows.
	Source string
}

// Retrieval result sources.
const (
	SourceVector  = "vector"
	SourceCatalog = "catalog"
)
