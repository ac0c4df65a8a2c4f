// Package pricing classifies prices into market segments and expresses
// price constraints in millions of currency units.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Million is one million base currency units.
const Million = 1_000_000

// Segment is a price band classification.
type Segment string

// Segments ordered from cheapest to most expensive.
const (
	SegmentNone     Segment = ""
	SegmentBudget   Segment = "budget"
	SegmentMid      Segment = "mid"
	SegmentUpperMid Segment = "upper_mid"
	SegmentFlagship Segment = "flagship"
)

// Tier lower bounds in base units. Each bound is inclusive.
const (
	FlagshipFrom int64 = 20 * Million
	UpperMidFrom int64 = 14 * Million
	MidFrom      int64 = 7 * Million
)

// Label returns the human-readable segment name used in source text.
func (s Segment) Label() string {
	switch s {
	case SegmentFlagship:
		return "flagship (cao cấp)"
	case SegmentUpperMid:
		return "upper-mid (cận cao cấp)"
	case SegmentMid:
		return "mid-range (tầm trung)"
	case SegmentBudget:
		return "budget (giá rẻ)"
	default:
		return ""
	}
}

// Classify returns the segment of a price in base units.
func Classify(amount int64) Segment {
	switch {
	case amount >= FlagshipFrom:
		return SegmentFlagship
	case amount >= UpperMidFrom:
		return SegmentUpperMid
	case amount >= MidFrom:
		return SegmentMid
	default:
		return SegmentBudget
	}
}

// ToMillions converts a base-unit amount to millions.
func ToMillions(amount int64) float64 {
	return float64(amount) / Million
}

// FormatVND renders an amount with dot thousands separators, e.g. "20.000.000 ₫".
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	b.WriteString(" ₫")
	return b.String()
}

// Range is an optional price interval in millions. Both bounds are inclusive;
// a nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

// IsEmpty reports whether neither bound is set.
func (r Range) IsEmpty() bool {
	return r.Min == nil && r.Max == nil
}

// Contains reports whether a price in millions lies inside the range.
func (r Range) Contains(millions float64) bool {
	if r.Min != nil && millions < *r.Min {
		return false
	}
	if r.Max != nil && millions > *r.Max {
		return false
	}
	return true
}

// ContainsAmount reports whether an optional base-unit price lies inside the range.
// A missing price never satisfies a bounded range.
func (r Range) ContainsAmount(amount *int64) bool {
	if r.IsEmpty() {
		return true
	}
	if amount == nil {
		return false
	}
	return r.Contains(ToMillions(*amount))
}

// String renders the range for logs and API responses.
func (r Range) String() string {
	switch {
	case r.IsEmpty():
		return "any"
	case r.Min == nil:
		return fmt.Sprintf("<=%g", *r.Max)
	case r.Max == nil:
		return fmt.Sprintf(">=%g", *r.Min)
	default:
		return fmt.Sprintf("%g-%g", *r.Min, *r.Max)
	}
}

// Between builds a closed range. Swapped bounds are reordered.
func Between(lo, hi float64) Range {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: &lo, Max: &hi}
}

// AtMost builds a range with only an upper bound.
func AtMost(hi float64) Range { return Range{Max: &hi} }

// AtLeast builds a range with only a lower bound.
func AtLeast(lo float64) Range { return Range{Min: &lo} }

// SegmentRange returns the million-denominated range implied by a segment.
// The upper bound stops one base unit below the next tier, so the range holds
// exactly the prices Classify assigns to s.
func SegmentRange(s Segment) Range {
	switch s {
	case SegmentFlagship:
		return AtLeast(ToMillions(FlagshipFrom))
	case SegmentUpperMid:
		return Between(ToMillions(UpperMidFrom), ToMillions(FlagshipFrom-1))
	case SegmentMid:
		return Between(ToMillions(MidFrom), ToMillions(UpperMidFrom-1))
	case SegmentBudget:
		return AtMost(ToMillions(MidFrom - 1))
	default:
		return Range{}
	}
}

// FromMillions converts millions back to base units, rounding to the nearest unit.
func FromMillions(m float64) int64 {
	return int64(math.Round(m * Million))
}
