package occlusion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// madScale converts MAD to a consistent estimator of the standard deviation
// under a normal distribution (1/1.4826).
const madScale = 0.6745

// median returns the empirical median of xs (the lower middle value for
// even-length input; the distinction is immaterial at the noise levels the
// checker gates on).
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// robustZScores returns the median/MAD-based z-score of each value, along
// with the MAD itself so callers can gate on it being non-trivial. A zero
// MAD yields zero scores (every value identical, no outlier signal).
func robustZScores(xs []float64) (scores []float64, mad float64) {
	scores = make([]float64, len(xs))
	if len(xs) == 0 {
		return scores, 0
	}

	med := median(xs)
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - med)
	}
	mad = median(devs)
	if mad == 0 {
		return scores, 0
	}

	for i, x := range xs {
		scores[i] = madScale * math.Abs(x-med) / mad
	}
	return scores, mad
}
