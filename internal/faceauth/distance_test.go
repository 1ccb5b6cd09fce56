package faceauth

import (
	"math"
	"testing"
)

func TestDistance_KnownValues(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"unit apart", []float64{0, 0, 0}, []float64{1, 0, 0}, 1},
		{"pythagorean", []float64{0, 0}, []float64{3, 4}, 5},
		{"small offset", []float64{0, 0, 0}, []float64{0, 0, 0.1}, 0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSquaredDistance_MatchesDistance(t *testing.T) {
	a := []float64{0.25, -1.5, 3.75, 0}
	b := []float64{-0.5, 2, 1, 4}

	d := Distance(a, b)
	d2 := SquaredDistance(a, b)

	if math.Abs(d*d-d2) > 1e-12 {
		t.Errorf("Distance^2 = %v, SquaredDistance = %v", d*d, d2)
	}
}

func TestSquaredDistance_ThresholdEquality(t *testing.T) {
	// The matcher compares squared distances, so a candidate exactly at
	// the threshold must produce a squared distance bit-identical to
	// threshold*threshold.
	probe := []float64{0, 0, 0}
	candidate := []float64{0.6, 0, 0}

	d2 := SquaredDistance(probe, candidate)
	if d2 != 0.6*0.6 {
		t.Errorf("SquaredDistance = %v, want exactly %v", d2, 0.6*0.6)
	}
}
