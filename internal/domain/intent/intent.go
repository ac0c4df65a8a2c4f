// Package intent turns a Vietnamese shopping question into a structured
// intent: the brands it names and the price range it implies.
package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
)

// DefaultLargeNumberThreshold separates "12" (millions) from "12000000" (base units).
const DefaultLargeNumberThreshold = 300

// QueryIntent is the per-request intent.
type QueryIntent struct {
	Brands  []BrandMatch    `json:"brands"`
	Price   pricing.Range   `json:"-"`
	Segment pricing.Segment `json:"segment,omitempty"`
}

// IsEmpty reports whether the intent carries neither a brand nor a price bound.
func (q QueryIntent) IsEmpty() bool {
	return len(q.Brands) == 0 && q.Price.IsEmpty()
}

// HasBrands reports whether at least one brand was recognised.
func (q QueryIntent) HasBrands() bool { return len(q.Brands) > 0 }

// HasPrice reports whether a price bound was inferred.
func (q QueryIntent) HasPrice() bool { return !q.Price.IsEmpty() }

// MatchesBrand reports whether a display brand name equals one of the intent brands.
func (q QueryIntent) MatchesBrand(brand string) bool {
	if brand == "" || len(q.Brands) == 0 {
		return false
	}
	n := Normalize(brand)
	for _, b := range q.Brands {
		if b.Normalized == n {
			return true
		}
	}
	return false
}

// MatchesPrice reports whether an optional base-unit price satisfies the bound.
func (q QueryIntent) MatchesPrice(amount *int64) bool {
	return q.HasPrice() && q.Price.ContainsAmount(amount)
}

const (
	number = `(\d+(?:[.,]\d+)*)`
	unit   = `(?:\s*(?:trieu|tr|cu|m|k|nghin|ngan|vnd|dong|d)\b)?`
)

var (
	groupedThousands = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

	betweenRe = regexp.MustCompile(`(?:\b(?:tu|khoang|tam)\s+)?` + number + unit + `\s*(?:-|~|\bden\b|\btoi\b)\s*` + number + unit)
	underRe   = regexp.MustCompile(`(?:\bduoi|\bnho hon|\bit hon|\bre hon|\bthap hon|\bkhong qua|\btoi da|<=?)\s*` + number + unit)
	overRe    = regexp.MustCompile(`(?:\btren|\blon hon|\bnhieu hon|\bcao hon|\bhon|\btoi thieu|>=?)\s*` + number + unit)
	fromUpRe  = regexp.MustCompile(`\btu\s+` + number + unit + `\s+tro\s+len\b`)

	// A number followed by one of these is a spec value ("8gb", "6.5 inch"), not a price.
	specUnitRe = regexp.MustCompile(`^\s*(?:gb|tb|mb|mah|mp|inch|in|ghz|hz|w|mm|g)\b`)
	thousandRe = regexp.MustCompile(`^\s*(?:k|nghin|ngan)\b`)
)

// Segment keywords, checked in order so longer phrases win over their suffixes.
var segmentKeywords = []struct {
	phrase  string
	segment pricing.Segment
}{
	{"can cao cap", pricing.SegmentUpperMid},
	{"trung cao cap", pricing.SegmentUpperMid},
	{"cao cap", pricing.SegmentFlagship},
	{"flagship", pricing.SegmentFlagship},
	{"dong dau", pricing.SegmentFlagship},
	{"tam trung", pricing.SegmentMid},
	{"trung cap", pricing.SegmentMid},
	{"gia re", pricing.SegmentBudget},
	{"binh dan", pricing.SegmentBudget},
	{"pho thong", pricing.SegmentBudget},
	{"gia tot", pricing.SegmentBudget},
}

// Extractor builds QueryIntents against a brand lookup.
type Extractor struct {
	brands    *BrandLookup
	threshold float64
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLargeNumberThreshold sets the magnitude above which numbers are read
// as base currency units.
func WithLargeNumberThreshold(v float64) ExtractorOption {
	return func(e *Extractor) {
		if v > 0 {
			e.threshold = v
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(brands *BrandLookup, opts ...ExtractorOption) *Extractor {
	e := &Extractor{brands: brands, threshold: DefaultLargeNumberThreshold}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract computes the intent for question using the current brand snapshot.
// A failing brand source degrades to price-only extraction; the error is
// returned for logging.
func (e *Extractor) Extract(ctx context.Context, question string) (QueryIntent, error) {
	var (
		snap *BrandSnapshot
		err  error
	)
	if e.brands != nil {
		snap, err = e.brands.Snapshot(ctx)
	}
	return e.ExtractWith(snap, question), err
}

// ExtractWith computes the intent against an explicit snapshot.
func (e *Extractor) ExtractWith(snap *BrandSnapshot, question string) QueryIntent {
	text := Normalize(question)
	if text == "" {
		return QueryIntent{}
	}

	q := QueryIntent{Brands: snap.Match(text)}

	// Precedence: segment, then between, then under/over. Later rules overwrite.
	for _, kw := range segmentKeywords {
		if strings.Contains(text, kw.phrase) {
			q.Segment = kw.segment
			q.Price = pricing.SegmentRange(kw.segment)
			break
		}
	}

	if m := betweenRe.FindStringSubmatchIndex(text); m != nil {
		lo, okLo := e.amountAt(text, m[2], m[3])
		hi, okHi := e.amountAt(text, m[4], m[5])
		if okLo && okHi {
			q.Price = pricing.Between(lo, hi)
		}
	}

	if hi, ok := e.firstAmount(underRe, text); ok {
		q.Price = withMax(q.Price, hi)
	}
	// Blank every "under" phrase so "nho hon" is not read again as "hon".
	rest := text
	for _, loc := range underRe.FindAllStringIndex(text, -1) {
		rest = rest[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + rest[loc[1]:]
	}

	if lo, ok := e.firstAmount(fromUpRe, rest); ok {
		q.Price = withMin(q.Price, lo)
	} else if lo, ok := e.firstAmount(overRe, rest); ok {
		q.Price = withMin(q.Price, lo)
	}

	return q
}

// firstAmount returns the amount of the first match of re whose number reads
// as a price.
func (e *Extractor) firstAmount(re *regexp.Regexp, text string) (float64, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := e.amountAt(text, loc[2], loc[3]); ok {
			return v, true
		}
	}
	return 0, false
}

// amountAt reads text[start:end] as a price in millions, looking at the unit
// that follows it. Spec units reject the number; "k" and "nghin" mean thousands.
func (e *Extractor) amountAt(text string, start, end int) (float64, bool) {
	suffix := text[end:]
	if specUnitRe.MatchString(suffix) {
		return 0, false
	}
	if thousandRe.MatchString(suffix) {
		v, ok := parseNumber(text[start:end])
		return v / 1000, ok
	}
	return e.amount(text[start:end])
}

// amount parses a number token into millions, applying the magnitude heuristic.
func (e *Extractor) amount(tok string) (float64, bool) {
	v, ok := parseNumber(tok)
	if !ok {
		return 0, false
	}
	if v > e.threshold {
		v /= pricing.Million
	}
	return v, true
}

func parseNumber(tok string) (float64, bool) {
	var (
		v   float64
		err error
	)
	if groupedThousands.MatchString(tok) {
		v, err = strconv.ParseFloat(strings.NewReplacer(".", "", ",", "").Replace(tok), 64)
	} else {
		v, err = strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
	}
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// withMax sets the upper bound, dropping a lower bound that would exceed it.
func withMax(r pricing.Range, hi float64) pricing.Range {
	if r.Min != nil && *r.Min > hi {
		return pricing.AtMost(hi)
	}
	r.Max = &hi
	return r
}

// withMin sets the lower bound, dropping an upper bound that would fall below it.
func withMin(r pricing.Range, lo float64) pricing.Range {
	if r.Max != nil && *r.Max < lo {
		return pricing.AtLeast(lo)
	}
	r.Min = &lo
	return r
}
