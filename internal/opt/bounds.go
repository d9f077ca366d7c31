package opt

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Bounds defines the feasible hyper-rectangle of a search.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// NewBounds copies lower and upper and validates them.
func NewBounds(lower, upper []float64) (Bounds, error) {
	b := Bounds{
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
	}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate checks dimensionality and ordering of every dimension.
func (b Bounds) Validate() error {
	if len(b.Lower) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidBounds)
	}
	if len(b.Lower) != len(b.Upper) {
		return fmt.Errorf("%w: lower has %d dimensions, upper has %d", ErrInvalidBounds, len(b.Lower), len(b.Upper))
	}
	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: dimension %d is not finite", ErrInvalidBounds, i)
		}
		if lo > hi {
			return fmt.Errorf("%w: dimension %d has lower %g > upper %g", ErrInvalidBounds, i, lo, hi)
		}
	}
	return nil
}

// Dim returns the number of dimensions.
func (b Bounds) Dim() int {
	return len(b.Lower)
}

// Width returns upper-lower for dimension i.
func (b Bounds) Width(i int) float64 {
	return b.Upper[i] - b.Lower[i]
}

// Contains reports whether every component of x lies within the bounds.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b.Lower) {
		return false
	}
	for i, v := range x {
		if v < b.Lower[i] || v > b.Upper[i] {
			return false
		}
	}
	return true
}

// ClampVector clamps all parameters in a vector
func (b Bounds) ClampVector(x []float64) {
	for i := range x {
		x[i] = clamp(x[i], b.Lower[i], b.Upper[i])
	}
}

// Uniform draws a point uniformly from the box.
func (b Bounds) Uniform(rng *rand.Rand) []float64 {
	x := make([]float64, len(b.Lower))
	for i := range x {
		x[i] = b.Lower[i] + rng.Float64()*b.Width(i)
	}
	return x
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
