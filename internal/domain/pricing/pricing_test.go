package pricing

import (
	"testing"
	"time"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		amount int64
		want   Segment
	}{
		{0, SegmentBudget},
		{6_999_999, SegmentBudget},
		{7_000_000, SegmentMid},
		{13_999_999, SegmentMid},
		{14_000_000, SegmentUpperMid},
		{19_999_999, SegmentUpperMid},
		{20_000_000, SegmentFlagship},
		{45_000_000, SegmentFlagship},
	}
	for _, tc := range tests {
		if got := Classify(tc.amount); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestFormatVND(t *testing.T) {
	tests := map[int64]string{
		0:          "0 ₫",
		999:        "999 ₫",
		1000:       "1.000 ₫",
		20_000_000: "20.000.000 ₫",
		123456789:  "123.456.789 ₫",
		-5000:      "-5.000 ₫",
	}
	for in, want := range tests {
		if got := FormatVND(in); got != want {
			t.Errorf("FormatVND(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRange_Contains(t *testing.T) {
	r := Between(7, 14)
	if !r.Contains(7) || !r.Contains(14) || !r.Contains(10) {
		t.Error("expected inclusive bounds")
	}
	if r.Contains(6.99) || r.Contains(14.01) {
		t.Error("expected values outside to be rejected")
	}
	if !(Range{}).Contains(1e9) {
		t.Error("empty range must contain everything")
	}
}

func TestRange_ContainsAmount_MissingPrice(t *testing.T) {
	if !(Range{}).ContainsAmount(nil) {
		t.Error("empty range must accept missing price")
	}
	if AtMost(10).ContainsAmount(nil) {
		t.Error("bounded range must reject missing price")
	}
	v := int64(9_500_000)
	if !AtMost(10).ContainsAmount(&v) {
		t.Error("9.5M must be under 10M")
	}
}

func TestBetween_SwapsBounds(t *testing.T) {
	r := Between(15, 5)
	if *r.Min != 5 || *r.Max != 15 {
		t.Errorf("expected 5-15, got %s", r)
	}
}

func TestSegmentRange_ConsistentWithClassify(t *testing.T) {
	for _, s := range []Segment{SegmentBudget, SegmentMid, SegmentUpperMid, SegmentFlagship} {
		r := SegmentRange(s)
		if r.IsEmpty() {
			t.Fatalf("segment %q has empty range", s)
		}
		var probe float64
		switch {
		case r.Min != nil && r.Max != nil:
			probe = (*r.Min + *r.Max) / 2
		case r.Min != nil:
			probe = *r.Min + 1
		default:
			probe = *r.Max - 1
		}
		if got := Classify(int64(probe * Million)); got != s {
			t.Errorf("midpoint of %q classified as %q", s, got)
		}
	}
	if !SegmentRange(SegmentNone).IsEmpty() {
		t.Error("no segment must produce an empty range")
	}
}

func TestSegmentRange_BoundariesMatchClassify(t *testing.T) {
	amounts := []int64{6_999_999, 7_000_000, 13_999_999, 14_000_000, 19_999_999, 20_000_000}
	for _, s := range []Segment{SegmentBudget, SegmentMid, SegmentUpperMid, SegmentFlagship} {
		r := SegmentRange(s)
		for _, amount := range amounts {
			want := Classify(amount) == s
			if got := r.ContainsAmount(&amount); got != want {
				t.Errorf("%s range %s contains %d = %v, want %v", s, r, amount, got, want)
			}
		}
	}
}

func TestPolicy_Select(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	product := &domain.Product{Prices: []domain.Price{
		{ID: 1, Amount: 12_000_000, Active: true, StartDate: now.AddDate(0, -3, 0)},
		{ID: 2, Amount: 11_000_000, Active: true, StartDate: now.AddDate(0, -1, 0)},
		{ID: 3, Amount: 15_000_000, Active: true, StartDate: now.AddDate(0, -2, 0)},
		{ID: 4, Amount: 9_000_000, Active: false, StartDate: now},
	}}

	tests := []struct {
		policy Policy
		wantID int64
	}{
		{PolicyLatestStart, 2},
		{PolicyEarliestStart, 1},
		{PolicyLowestAmount, 2},
	}
	for _, tc := range tests {
		sel := tc.policy.Select(product, now)
		if !sel.Found {
			t.Fatalf("%s: expected a price", tc.policy)
		}
		if sel.Price.ID != tc.wantID {
			t.Errorf("%s: got price %d, want %d", tc.policy, sel.Price.ID, tc.wantID)
		}
		if !sel.Conflict() || sel.Candidates != 3 {
			t.Errorf("%s: expected conflict with 3 candidates, got %d", tc.policy, sel.Candidates)
		}
	}
}

func TestPolicy_Select_NoActivePrice(t *testing.T) {
	sel := PolicyLatestStart.Select(&domain.Product{}, time.Now())
	if sel.Found || sel.Amount() != nil {
		t.Fatal("expected no selection")
	}
	if sel.Conflict() {
		t.Error("no prices must not be a conflict")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyLatestStart {
		t.Errorf("empty policy: got %q, %v", p, err)
	}
	if _, err := ParsePolicy("random"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
