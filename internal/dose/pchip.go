package dose

import (
	"fmt"
	"math"
	"sort"
)

// pchip is a shape-preserving piecewise cubic Hermite interpolant
// (Fritsch-Carlson slopes). It preserves local monotonicity of the data and
// does not overshoot between monotone points; outside the knot range it
// extrapolates by evaluating the boundary cubic segment.
type pchip struct {
	xs []float64
	ys []float64
	ds []float64 // knot derivatives
}

// newPCHIP fits the interpolant. xs must be strictly increasing and hold at
// least two points.
func newPCHIP(xs, ys []float64) (*pchip, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("pchip: %d x values but %d y values", len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return nil, fmt.Errorf("pchip: need at least 2 points, got %d", n)
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("pchip: x values not strictly increasing at index %d", i)
		}
	}

	h := make([]float64, n-1)
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		delta[i] = (ys[i+1] - ys[i]) / h[i]
	}

	ds := make([]float64, n)
	if n == 2 {
		ds[0], ds[1] = delta[0], delta[0]
	} else {
		// Interior: weighted harmonic mean of adjacent secants, zero at
		// local extrema. This is what keeps the curve inside the data.
		for i := 1; i < n-1; i++ {
			if delta[i-1]*delta[i] <= 0 {
				ds[i] = 0
				continue
			}
			w1 := 2*h[i] + h[i-1]
			w2 := h[i] + 2*h[i-1]
			ds[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
		}
		ds[0] = endSlope(h[0], h[1], delta[0], delta[1])
		ds[n-1] = endSlope(h[n-2], h[n-3], delta[n-2], delta[n-3])
	}

	return &pchip{xs: xs, ys: ys, ds: ds}, nil
}

// endSlope is the non-centered three-point estimate for a boundary knot,
// clamped so the boundary segment stays monotone.
func endSlope(h0, h1, d0, d1 float64) float64 {
	s := ((2*h0+h1)*d0 - h0*d1) / (h0 + h1)
	switch {
	case s*d0 <= 0:
		return 0
	case d0*d1 < 0 && math.Abs(s) > 3*math.Abs(d0):
		return 3 * d0
	}
	return s
}

// at evaluates the interpolant. Queries outside [xs[0], xs[n-1]] evaluate
// the first or last cubic segment (extrapolation is permitted).
func (p *pchip) at(x float64) float64 {
	n := len(p.xs)
	// Segment index: the last i with xs[i] <= x, clamped to a valid segment.
	i := sort.SearchFloat64s(p.xs, x) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	h := p.xs[i+1] - p.xs[i]
	t := (x - p.xs[i]) / h
	t2 := t * t
	t3 := t2 * t

	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	return h00*p.ys[i] + h10*h*p.ds[i] + h01*p.ys[i+1] + h11*h*p.ds[i+1]
}
