package fit

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/regressionfit/internal/opt"
)

// LogLikelihood returns the Gaussian log-likelihood of d under a
// parameter vector (intercept, slope, sigma), to be maximized.
//
// A vector with sigma <= 0 yields -Inf. A vector with sigma > 0 never
// does: if the sum is not finite it is reported as -math.MaxFloat64, so
// degenerate vectors are strictly worse than every valid one.
func LogLikelihood(d Dataset) opt.ObjectiveFunc {
	return func(params []float64) float64 {
		return logLikelihood(d, params)
	}
}

// NegLogLikelihood is the cost form of LogLikelihood, to be minimized.
// For every vector it returns exactly -LogLikelihood(d)(params).
func NegLogLikelihood(d Dataset) opt.ObjectiveFunc {
	return func(params []float64) float64 {
		return -logLikelihood(d, params)
	}
}

func logLikelihood(d Dataset, params []float64) float64 {
	if len(params) != len(ParamNames) {
		return math.Inf(-1)
	}
	intercept, slope, sigma := params[0], params[1], params[2]
	if !(sigma > 0) {
		return math.Inf(-1)
	}

	residual := distuv.Normal{Mu: 0, Sigma: sigma}
	var sum float64
	for i, x := range d.X {
		sum += residual.LogProb(d.Y[i] - (intercept + slope*x))
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return -math.MaxFloat64
	}
	return sum
}
