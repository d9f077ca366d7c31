package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// OLS fits the closed-form least-squares line to d. Sigma is the residual
// standard error sqrt(SSR/(n-2)).
func OLS(d Dataset) (Params, error) {
	if err := d.Validate(); err != nil {
		return Params{}, err
	}
	n := d.Len()
	if n < 3 {
		return Params{}, fmt.Errorf("least squares needs at least 3 observations, got %d", n)
	}

	alpha, beta := stat.LinearRegression(d.X, d.Y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return Params{}, fmt.Errorf("least squares is undefined: predictor has no variance")
	}

	var ssr float64
	for i, x := range d.X {
		r := d.Y[i] - (alpha + beta*x)
		ssr += r * r
	}

	return Params{
		Intercept: alpha,
		Slope:     beta,
		Sigma:     math.Sqrt(ssr / float64(n-2)),
	}, nil
}
