package chart

import "math"

// Histogram holds n equal-width bins: Edges has n+1 entries and Counts n.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Bin splits values into n equal-width bins over [min, max]. Every bin is
// half-open except the last, which includes max. When all values are equal
// the range is widened by 0.5 on each side. NaN values are skipped.
func Bin(values []float64, n int) Histogram {
	if n < 1 {
		n = 1
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(n)
	h := Histogram{Edges: make([]float64, n+1), Counts: make([]int, n)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[n] = hi

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		h.Counts[i]++
	}
	return h
}

// Total returns the number of binned values.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}
