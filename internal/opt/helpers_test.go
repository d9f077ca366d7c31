package opt

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func negSphere(x []float64) float64 {
	return -sphere(x)
}

func cube(t *testing.T, dim int, lo, hi float64) Bounds {
	t.Helper()

	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = lo
		upper[i] = hi
	}
	b, err := NewBounds(lower, upper)
	require.NoError(t, err)
	return b
}

// countingObjective records how often it is called.
type countingObjective struct {
	fn    func([]float64) float64
	calls atomic.Int64
}

func (c *countingObjective) Evaluate(x []float64) float64 {
	c.calls.Add(1)
	return c.fn(x)
}
