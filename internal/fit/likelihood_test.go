package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func referenceData(t *testing.T) Dataset {
	t.Helper()
	d, err := Generate(DefaultTruth(), DefaultGenerator())
	require.NoError(t, err)
	return d
}

func TestLogLikelihood_MatchesClosedForm(t *testing.T) {
	d := Dataset{X: []float64{0, 1, 2}, Y: []float64{1, 2.5, 5}}
	a, b, s := 0.5, 2.0, 1.5

	var want float64
	for i, x := range d.X {
		r := d.Y[i] - (a + b*x)
		want += -0.5*math.Log(2*math.Pi) - math.Log(s) - r*r/(2*s*s)
	}

	got := LogLikelihood(d).Evaluate([]float64{a, b, s})
	assert.InDelta(t, want, got, 1e-12)
}

func TestLogLikelihood_DegenerateSigma(t *testing.T) {
	d := referenceData(t)
	ll := LogLikelihood(d)

	for _, sigma := range []float64{0, -1, -1e-300, math.NaN()} {
		v := ll.Evaluate([]float64{1, 4, sigma})
		assert.True(t, math.IsInf(v, -1), "sigma=%v gave %v", sigma, v)
	}

	// strictly worse than anything with sigma > 0, however tiny or huge
	for _, sigma := range []float64{1e-300, 1e-10, 0.1, 16.5, 1e300, math.Inf(1)} {
		v := ll.Evaluate([]float64{1, 4, sigma})
		assert.Greater(t, v, math.Inf(-1), "sigma=%v", sigma)
	}
}

func TestLogLikelihood_WrongDimension(t *testing.T) {
	d := referenceData(t)
	assert.True(t, math.IsInf(LogLikelihood(d).Evaluate([]float64{1, 2}), -1))
}

func TestLogLikelihood_PeaksNearTruth(t *testing.T) {
	d := referenceData(t)
	ll := LogLikelihood(d)
	truth := DefaultTruth()

	atTruth := ll.Evaluate(truth.Vector())
	assert.Greater(t, atTruth, ll.Evaluate([]float64{truth.Intercept, truth.Slope + 1, truth.Sigma}))
	assert.Greater(t, atTruth, ll.Evaluate([]float64{truth.Intercept, truth.Slope, truth.Sigma * 3}))
	assert.Greater(t, atTruth, ll.Evaluate([]float64{truth.Intercept + 30, truth.Slope, truth.Sigma}))
}

func TestSignConventionEquivalence(t *testing.T) {
	d := referenceData(t)
	ll := LogLikelihood(d)
	cost := NegLogLikelihood(d)

	candidates := [][]float64{
		DefaultTruth().Vector(),
		{0, 0, 1},
		{-20, 10, 40},
		{1, 4, 0},
		{1, 4, 1e-300},
	}
	for _, c := range candidates {
		assert.Equal(t, ll.Evaluate(c), -cost.Evaluate(c), "candidate %v", c)
	}
}

func TestLogLikelihood_UsesNormalLogDensity(t *testing.T) {
	d := Dataset{X: []float64{3}, Y: []float64{7}}
	want := distuv.Normal{Mu: 0, Sigma: 2}.LogProb(7 - (1 + 2*3))
	assert.Equal(t, want, LogLikelihood(d).Evaluate([]float64{1, 2, 2}))
}
