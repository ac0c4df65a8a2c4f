// Package batch describes per-item outcomes of bulk operations such as an
// embedding rebuild.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusError   ItemStatus = "error"
	StatusSkipped ItemStatus = "skipped"
)

// Result is the outcome of processing one product in a batch operation.
type Result struct {
	productID int64
	status    ItemStatus
	err       error
}

// NewOK creates a successful batch result.
func NewOK(productID int64) Result { return Result{productID: productID, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(productID int64, err error) Result {
	return Result{productID: productID, status: StatusError, err: err}
}

// NewSkipped marks an item that was not processed because the batch stopped early.
func NewSkipped(productID int64) Result { return Result{productID: productID, status: StatusSkipped} }

// ProductID returns the item identifier.
func (r Result) ProductID() int64 { return r.productID }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Tally counts results per status.
type Tally struct {
	OK      int `json:"ok"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Add records one result.
func (t *Tally) Add(r Result) {
	switch r.status {
	case StatusOK:
		t.OK++
	case StatusError:
		t.Failed++
	case StatusSkipped:
		t.Skipped++
	}
}

// Total returns the number of recorded results.
func (t Tally) Total() int { return t.OK + t.Failed + t.Skipped }
