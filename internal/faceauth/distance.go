package faceauth

import "math"

// SquaredDistance computes the squared Euclidean distance between two
// signatures of equal length. The matcher compares squared distances
// against the squared threshold, which is equivalent to comparing
// distances and avoids a sqrt per candidate.
func SquaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Distance computes the Euclidean distance between two signatures of
// equal length.
func Distance(a, b []float64) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}
