package fit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParamNames lists the components of a parameter vector in order.
var ParamNames = []string{"intercept", "slope", "sigma"}

// Params are the parameters of y = Intercept + Slope*x + N(0, Sigma).
type Params struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	Sigma     float64 `json:"sigma"`
}

// Vector encodes p as a parameter vector in ParamNames order.
func (p Params) Vector() []float64 {
	return []float64{p.Intercept, p.Slope, p.Sigma}
}

// ParamsFromVector decodes a parameter vector.
func ParamsFromVector(v []float64) (Params, error) {
	if len(v) != len(ParamNames) {
		return Params{}, fmt.Errorf("parameter vector has %d components, want %d", len(v), len(ParamNames))
	}
	return Params{Intercept: v[0], Slope: v[1], Sigma: v[2]}, nil
}

// DefaultTruth returns the generating parameters of the reference experiment.
func DefaultTruth() Params {
	return Params{
		Intercept: 1.345,
		Slope:     4.876,
		Sigma:     math.Sqrt(273),
	}
}

// Dataset is an ordered collection of (x, y) observations. It is shared
// read-only by every objective bound to it.
type Dataset struct {
	X []float64
	Y []float64
}

// Len returns the number of observations
func (d Dataset) Len() int {
	return len(d.X)
}

// Validate checks that predictors and responses pair up and are finite.
func (d Dataset) Validate() error {
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("dataset has %d predictors and %d responses", len(d.X), len(d.Y))
	}
	for i := range d.X {
		if math.IsNaN(d.X[i]) || math.IsInf(d.X[i], 0) || math.IsNaN(d.Y[i]) || math.IsInf(d.Y[i], 0) {
			return fmt.Errorf("dataset row %d is not finite", i)
		}
	}
	return nil
}

// GeneratorConfig controls synthetic data generation.
type GeneratorConfig struct {
	N    int
	XMin float64
	XMax float64
	Seed uint64
}

// DefaultGenerator returns the reference experiment's design.
func DefaultGenerator() GeneratorConfig {
	return GeneratorConfig{
		N:    1000,
		XMin: 12.5,
		XMax: 120.29,
		Seed: 1,
	}
}

// Generate draws x uniformly from [XMin, XMax] and y from
// N(truth.Intercept + truth.Slope*x, truth.Sigma).
func Generate(truth Params, cfg GeneratorConfig) (Dataset, error) {
	if cfg.N < 1 {
		return Dataset{}, fmt.Errorf("generator needs at least one observation, got %d", cfg.N)
	}
	if !(cfg.XMin < cfg.XMax) {
		return Dataset{}, fmt.Errorf("generator range [%g, %g] is empty", cfg.XMin, cfg.XMax)
	}
	if !(truth.Sigma > 0) {
		return Dataset{}, fmt.Errorf("generator sigma must be positive, got %g", truth.Sigma)
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0xda3e39cb94b95bdb)
	predictor := distuv.Uniform{Min: cfg.XMin, Max: cfg.XMax, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: truth.Sigma, Src: src}

	d := Dataset{
		X: make([]float64, cfg.N),
		Y: make([]float64, cfg.N),
	}
	for i := 0; i < cfg.N; i++ {
		x := predictor.Rand()
		d.X[i] = x
		d.Y[i] = truth.Intercept + truth.Slope*x + noise.Rand()
	}
	return d, nil
}
