// Package ml implements the small set of models the scoring pipeline needs:
// feature standardization, a seeded train/test split, an isolation forest,
// CART trees, a random-forest classifier and a gradient-boosting regressor.
//
// All randomness flows from explicit seeds so that repeated runs over the
// same input produce identical output.
package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-th quantile of vals using linear interpolation
// between closest ranks. vals is not modified.
func Quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Accuracy is the share of predictions equal to the truth.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hit := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// R2 is the coefficient of determination. A constant truth vector scores 1
// for a perfect fit and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	mean := stat.Mean(truth, nil)
	var ssRes, ssTot float64
	for i := range truth {
		d := truth[i] - pred[i]
		ssRes += d * d
		t := truth[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// MeanAbsError is the mean absolute difference between truth and pred.
func MeanAbsError(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	diff := make([]float64, len(truth))
	floats.SubTo(diff, truth, pred)
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	return floats.Sum(diff) / float64(len(diff))
}

// MinMaxScale rescales vals linearly to [0, hi]. When every value is equal
// the result is all zeros.
func MinMaxScale(vals []float64, hi float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	lo, top := floats.Min(vals), floats.Max(vals)
	span := top - lo
	if span == 0 {
		return out
	}
	for i, v := range vals {
		out[i] = (v - lo) / span * hi
	}
	return out
}
