package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Round rounds x to the given number of decimal places.
func Round(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

// VectorIsFinite returns false if any coordinate is NaN or infinite.
func VectorIsFinite(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
