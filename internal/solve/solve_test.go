// SPDX-License-Identifier: Unlicense OR MIT

package solve

import (
	"math"
	"testing"
)

func closeTo(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestQuadraticTwoRoots(t *testing.T) {
	// t^2 - 0.5t - 0.5 = 0 has roots -0.5 and 1, only 1 lies in [0,1].
	roots := Quadratic(1, -0.5, -0.5)
	if len(roots) != 1 || !closeTo(roots[0], 1) {
		t.Fatalf("Quadratic(1,-0.5,-0.5) = %v, want [1]", roots)
	}
}

func TestQuadraticDoubleRootReportedOnce(t *testing.T) {
	// 4t^2 - 4t + 1 = 0 => (2t-1)^2=0, double root at 0.5.
	roots := Quadratic(4, -4, 1)
	if len(roots) != 1 || !closeTo(roots[0], 0.5) {
		t.Fatalf("Quadratic(4,-4,1) = %v, want [0.5]", roots)
	}
}

func TestQuadraticNoRealRoots(t *testing.T) {
	roots := Quadratic(1, 0, 1) // t^2+1=0
	if roots != nil {
		t.Fatalf("Quadratic(1,0,1) = %v, want nil", roots)
	}
}

func TestQuadraticDegenerateLinear(t *testing.T) {
	// A==0: B*t+C=0 => t = -C/B.
	roots := Quadratic(0, 2, -1) // 2t - 1 = 0 => t = 0.5
	if len(roots) != 1 || !closeTo(roots[0], 0.5) {
		t.Fatalf("Quadratic(0,2,-1) = %v, want [0.5]", roots)
	}
}

func TestCubicThreeRealRoots(t *testing.T) {
	// (t-0.2)(t-0.5)(t-0.8) = t^3 - 1.5t^2 + 0.66t - 0.08
	roots := Cubic(1, -1.5, 0.66, -0.08)
	want := []float32{0.2, 0.5, 0.8}
	if len(roots) != len(want) {
		t.Fatalf("Cubic roots = %v, want %v", roots, want)
	}
	for i, w := range want {
		if !closeTo(roots[i], w) {
			t.Errorf("roots[%d] = %v, want %v", i, roots[i], w)
		}
	}
}

func TestCubicFallsBackToQuadratic(t *testing.T) {
	// A negligible: behaves like Quadratic(b,c,d).
	roots := Cubic(0, 4, -4, 1)
	if len(roots) != 1 || !closeTo(roots[0], 0.5) {
		t.Fatalf("Cubic(0,4,-4,1) = %v, want [0.5]", roots)
	}
}

func TestCubicOutOfRangeRootsExcluded(t *testing.T) {
	// (t+2)(t-0.5)(t-5) has only one root in [0,1].
	// Expand: roots -2, 0.5, 5.
	a := 1.0
	b := -(-2.0 + 0.5 + 5.0)
	c := (-2.0*0.5 + -2.0*5.0 + 0.5*5.0)
	d := -(-2.0 * 0.5 * 5.0)
	roots := Cubic(a, b, c, d)
	if len(roots) != 1 || !closeTo(roots[0], 0.5) {
		t.Fatalf("Cubic out-of-range exclusion = %v, want [0.5]", roots)
	}
}
