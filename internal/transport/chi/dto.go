package chi

import (
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
	domusage "github.com/kailas-cloud/catalogsearch/internal/domain/usage"
	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
)

type questionRequest struct {
	Question string `json:"question"`
	Limit    int    `json:"limit,omitempty"`
}

type productItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand,omitempty"`
	Price       *int64   `json:"price"`
	PriceText   string   `json:"price_text"`
	Description string   `json:"description,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Source      string   `json:"source"`
}

type intentResponse struct {
	Brands   []string `json:"brands"`
	PriceMin *float64 `json:"price_min_million,omitempty"`
	PriceMax *float64 `json:"price_max_million,omitempty"`
	Segment  string   `json:"segment,omitempty"`
}

type searchResponse struct {
	Items    []productItem  `json:"items"`
	Intent   intentResponse `json:"intent"`
	Fallback bool           `json:"fallback"`
}

type askResponse struct {
	Answer string        `json:"answer"`
	Source string        `json:"source"`
	Items  []productItem `json:"items"`
}

type brandsResponse struct {
	Brands []string `json:"brands"`
}

type itemFailure struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

type rebuildReport struct {
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Aborted    string        `json:"aborted,omitempty"`
	Failures   []itemFailure `json:"failures,omitempty"`
}

type rebuildStatus struct {
	Running   bool           `json:"running"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	Last      *rebuildReport `json:"last,omitempty"`
	LastError string         `json:"last_error,omitempty"`
}

type usageResponse struct {
	Period    string    `json:"period"`
	Start     time.Time `json:"period_start"`
	ResetsAt  time.Time `json:"resets_at"`
	Limit     *int64    `json:"tokens_limit"`
	Used      int64     `json:"tokens_used"`
	Remaining *int64    `json:"tokens_remaining"`
	Exhausted bool      `json:"exhausted"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func productsToDTO(items []domain.RetrievedProduct) []productItem {
	out := make([]productItem, len(items))
	for i, it := range items {
		p := productItem{
			ID:          it.ProductID,
			Name:        it.Name,
			Brand:       it.Brand,
			Price:       it.ActivePrice,
			PriceText:   "chưa có giá",
			Description: it.Description,
			Source:      it.Source,
		}
		if it.ActivePrice != nil {
			p.PriceText = pricing.FormatVND(*it.ActivePrice)
		}
		if it.Source == domain.SourceVector {
			d := it.Distance
			p.Distance = &d
		}
		out[i] = p
	}
	return out
}

func intentToDTO(q intent.QueryIntent) intentResponse {
	brands := make([]string, len(q.Brands))
	for i, b := range q.Brands {
		brands[i] = b.Display
	}
	return intentResponse{
		Brands:   brands,
		PriceMin: q.Price.Min,
		PriceMax: q.Price.Max,
		Segment:  string(q.Segment),
	}
}

func reportToDTO(r embeddinguc.Report) rebuildReport {
	out := rebuildReport{
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
		Total:      r.Total,
		Succeeded:  r.Items.OK,
		Failed:     r.Items.Failed,
		Skipped:    r.Items.Skipped,
		Aborted:    r.Aborted,
	}
	for _, f := range r.Failures {
		msg := "unknown error"
		if f.Err() != nil {
			msg = safeDomainMessage(f.Err())
		}
		out.Failures = append(out.Failures, itemFailure{ProductID: f.ProductID(), Error: msg})
	}
	return out
}

func usageToDTO(r domusage.Report) usageResponse {
	out := usageResponse{
		Period:    string(r.Period()),
		Start:     r.Start(),
		ResetsAt:  r.ResetsAt(),
		Used:      r.Used(),
		Exhausted: r.Exhausted(),
	}
	if r.Limit() > 0 {
		limit, remaining := r.Limit(), r.Remaining()
		out.Limit = &limit
		out.Remaining = &remaining
	}
	return out
}

func statusToDTO(st embeddinguc.Status) rebuildStatus {
	out := rebuildStatus{Running: st.Running}
	if st.Running {
		t := st.StartedAt
		out.StartedAt = &t
	}
	if st.Last != nil {
		rep := reportToDTO(*st.Last)
		out.Last = &rep
	}
	if st.LastErr != nil {
		out.LastError = safeDomainMessage(st.LastErr)
	}
	return out
}
