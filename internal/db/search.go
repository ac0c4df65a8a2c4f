package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // vector attribute, "vector" when empty
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Distance is the raw metric value reported by
// the engine, smaller meaning closer.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
