// Package vector holds dimension fitting and distance helpers shared by the
// embedding pipeline and the in-memory index.
package vector

import (
	"fmt"
	"math"
)

// Metric is the distance function of an index.
type Metric string

// Supported metrics.
const (
	MetricCosine Metric = "COSINE"
	MetricL2     Metric = "L2"
)

// ParseMetric validates a configured metric. Empty means MetricCosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "":
		return MetricCosine, nil
	case MetricCosine, MetricL2:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// Fit returns a copy of v with exactly dim elements: longer vectors are
// truncated, shorter ones padded with zeros.
func Fit(v []float32, dim int) []float32 {
	if dim <= 0 {
		return nil
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// Distance computes the metric between a and b. Smaller is closer.
// Vectors of different length are compared over the shorter prefix.
func (m Metric) Distance(a, b []float32) float64 {
	if m == MetricL2 {
		return L2(a, b)
	}
	return Cosine(a, b)
}

// Cosine returns 1 - cos(a, b). A zero vector is at distance 1 from everything.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := range n {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
