// Package sourcetext builds the canonical, line-labelled text that is embedded
// for each product.
package sourcetext

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/attribute"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
)

// PendingPrice is written when a product has no active price.
const PendingPrice = "pending"

// Performance tiers.
const (
	TierFlagship = "flagship"
	TierHigh     = "high"
	TierStandard = "standard"
)

const highRAMGB = 8

// Synthesizer renders products into source text. The output depends only on
// the product, the price policy and the clock.
type Synthesizer struct {
	policy pricing.Policy
	now    func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the clock used to resolve active prices.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New creates a Synthesizer with the given active price policy.
func New(policy pricing.Policy, opts ...Option) *Synthesizer {
	s := &Synthesizer{policy: policy, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result is the synthesized text plus the facts derived while building it.
type Result struct {
	Text          string
	Price         pricing.Selection
	Segment       pricing.Segment
	Attributes    attribute.Attributes
	PriceConflict bool
}

// Build synthesizes the source text for p.
func (s *Synthesizer) Build(p *domain.Product) Result {
	sel := s.policy.Select(p, s.now())
	structured := attribute.FromSpecification(p.Spec)
	extracted := attribute.Extract(p.Description)
	merged := attribute.Merge(structured, extracted)
	merged.Highlights = attribute.Highlights(merged)

	var w lineWriter
	w.line("Product", p.Name)
	if brand := p.BrandName(); brand != "" {
		w.line("Brand", brand)
	}
	w.line("Status", orUnknown(p.Status))
	w.line("Rating", strconv.FormatFloat(p.Rating, 'f', -1, 64))

	segment := pricing.SegmentNone
	if sel.Found {
		segment = pricing.Classify(sel.Price.Amount)
		w.line("Active price", pricing.FormatVND(sel.Price.Amount))
		w.line("Price segment", segment.Label())
	} else {
		w.line("Active price", PendingPrice)
	}

	if tier := performanceTier(merged); tier != "" {
		w.line("Performance tier", tier)
	}

	if p.Spec != nil {
		for _, f := range p.Spec.Fields() {
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			w.line(f.Label, f.Value)
		}
	}

	for _, ef := range extractedFields {
		if specHas(p.Spec, ef.field) || !extracted.Has(ef.field) {
			continue
		}
		w.line(ef.label+" (from description)", extracted.Display(ef.field))
	}

	if len(merged.Highlights) > 0 {
		w.raw("Highlights:")
		for _, h := range merged.Highlights {
			w.raw("- " + h)
		}
	}

	if desc := strings.TrimSpace(p.Description); desc != "" {
		w.line("Description", p.Description)
	}

	return Result{
		Text:          w.String(),
		Price:         sel,
		Segment:       segment,
		Attributes:    merged,
		PriceConflict: sel.Conflict(),
	}
}

// Text is a shorthand for Build(p).Text.
func (s *Synthesizer) Text(p *domain.Product) string {
	return s.Build(p).Text
}

var extractedFields = []struct {
	field attribute.Field
	label string
}{
	{attribute.FieldBattery, "Battery"},
	{attribute.FieldRearCamera, "Rear camera"},
	{attribute.FieldFrontCamera, "Front camera"},
	{attribute.FieldRAM, "RAM"},
	{attribute.FieldStorage, "Storage"},
	{attribute.FieldChipset, "Chipset"},
}

func specHas(spec *domain.Specification, f attribute.Field) bool {
	if spec == nil {
		return false
	}
	var v string
	switch f {
	case attribute.FieldBattery:
		v = spec.Battery
	case attribute.FieldRearCamera:
		v = spec.RearCamera
	case attribute.FieldFrontCamera:
		v = spec.FrontCamera
	case attribute.FieldRAM:
		v = spec.RAM
	case attribute.FieldStorage:
		v = spec.Storage
	case attribute.FieldChipset:
		v = spec.Chipset
	}
	return strings.TrimSpace(v) != ""
}

func performanceTier(a attribute.Attributes) string {
	switch {
	case a.RAMGB >= attribute.FlagshipRAMGB || attribute.IsHighEndChipset(a.Chipset):
		return TierFlagship
	case a.RAMGB >= highRAMGB:
		return TierHigh
	case a.RAMGB > 0 || a.Chipset != "":
		return TierStandard
	default:
		return ""
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

type lineWriter struct {
	b strings.Builder
}

func (w *lineWriter) line(label, value string) {
	w.raw(label + ": " + value)
}

func (w *lineWriter) raw(s string) {
	if w.b.Len() > 0 {
		w.b.WriteByte('\n')
	}
	w.b.WriteString(s)
}

func (w *lineWriter) String() string { return w.b.String() }
