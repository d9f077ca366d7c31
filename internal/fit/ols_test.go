package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOLS_ExactLine(t *testing.T) {
	d := Dataset{
		X: []float64{0, 1, 2, 3, 4},
		Y: []float64{1, 3, 5, 7, 9},
	}

	p, err := OLS(d)
	require.NoError(t, err)
	assert.InDelta(t, 1, p.Intercept, 1e-12)
	assert.InDelta(t, 2, p.Slope, 1e-12)
	assert.InDelta(t, 0, p.Sigma, 1e-9)
}

func TestOLS_ResidualStandardError(t *testing.T) {
	d := Dataset{
		X: []float64{0, 1, 2, 3},
		Y: []float64{1, 0, 1, 4},
	}

	p, err := OLS(d)
	require.NoError(t, err)

	var ssr float64
	for i, x := range d.X {
		r := d.Y[i] - (p.Intercept + p.Slope*x)
		ssr += r * r
	}
	assert.InDelta(t, ssr/2, p.Sigma*p.Sigma, 1e-12)
}

func TestOLS_ReferenceData(t *testing.T) {
	p, err := OLS(referenceData(t))
	require.NoError(t, err)

	truth := DefaultTruth()
	// slope and sigma are estimated tightly at n = 1000
	assert.InDelta(t, truth.Slope, p.Slope, 0.1)
	assert.InDelta(t, truth.Sigma, p.Sigma, 1.5)
	assert.InDelta(t, truth.Intercept, p.Intercept, 6)
}

func TestOLS_TooFewRows(t *testing.T) {
	_, err := OLS(Dataset{X: []float64{1, 2}, Y: []float64{1, 2}})
	assert.Error(t, err)

	_, err = OLS(Dataset{X: []float64{1, 2, 3}, Y: []float64{1, 2}})
	assert.Error(t, err)
}

func TestOLS_ConstantPredictor(t *testing.T) {
	_, err := OLS(Dataset{X: []float64{2, 2, 2}, Y: []float64{1, 2, 3}})
	assert.Error(t, err)
}
