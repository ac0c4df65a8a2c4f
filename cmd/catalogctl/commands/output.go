package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func writeItems(w io.Writer, items []domain.RetrievedProduct) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tSOURCE")
	for _, it := range items {
		price := "-"
		if it.ActivePrice != nil {
			price = pricing.FormatVND(*it.ActivePrice)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ProductID, it.Name, it.Brand, price, it.Source)
	}
	_ = tw.Flush()
}

func writeIntent(w io.Writer, q intent.QueryIntent) {
	if q.IsEmpty() {
		return
	}
	var parts []string
	if q.HasBrands() {
		names := make([]string, 0, len(q.Brands))
		for _, b := range q.Brands {
			names = append(names, b.Display)
		}
		parts = append(parts, "brands="+strings.Join(names, ","))
	}
	if q.HasPrice() {
		parts = append(parts, "price="+q.Price.String())
	}
	if q.Segment != "" {
		parts = append(parts, "segment="+string(q.Segment))
	}
	fmt.Fprintf(w, "Intent: %s\n", strings.Join(parts, " "))
}

func writeReport(w io.Writer, rep embeddinguc.Report) {
	fmt.Fprintf(w, "Rebuilt %d/%d products in %s (failed %d, skipped %d)\n",
		rep.Items.OK, rep.Total, rep.Duration.Round(time.Millisecond), rep.Items.Failed, rep.Items.Skipped)
	if rep.Aborted != "" {
		fmt.Fprintf(w, "Aborted: %s\n", rep.Aborted)
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  product %d: %v\n", f.ProductID(), f.Err())
	}
}
