// Package compare runs the closed-form fit and every stochastic optimizer
// on one dataset and aligns their estimates for reporting.
package compare

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/regressionfit/internal/fit"
	"github.com/cwbudde/regressionfit/internal/opt"
)

// Input is everything one comparison needs.
type Input struct {
	Data       fit.Dataset
	Truth      fit.Params // used for reporting only
	Bounds     opt.Bounds
	Optimizers []opt.Optimizer
}

// Outcome is the result of one optimizer on the comparison dataset.
type Outcome struct {
	Name   string
	Sense  opt.Sense
	Result *opt.Result

	// Estimate is Result.Best decoded into named parameters
	Estimate fit.Params

	// LogLikelihood is Result.Value converted back to log-likelihood:
	// unchanged for maximizers, negated for minimizers
	LogLikelihood float64
}

// Row is one estimated parameter across all strategies. Estimates follow
// the order of Report.Outcomes.
type Row struct {
	Parameter string
	True      float64
	OLS       float64
	Estimates []float64
}

// Report aligns every strategy's estimates.
type Report struct {
	Truth            fit.Params
	OLS              fit.Params
	OLSLogLikelihood float64
	Outcomes         []Outcome
	Rows             []Row
}

// Columns returns the estimate column names in Row.Estimates order.
func (r *Report) Columns() []string {
	names := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		names[i] = o.Name
	}
	return names
}

// Objective returns the objective matching an optimizer's sense: the
// log-likelihood for maximizers, its negation for minimizers.
func Objective(sense opt.Sense, d fit.Dataset) opt.Objective {
	if sense == opt.Maximize {
		return fit.LogLikelihood(d)
	}
	return fit.NegLogLikelihood(d)
}

// ToLogLikelihood converts an objective value reported under sense back to
// a log-likelihood.
func ToLogLikelihood(sense opt.Sense, value float64) float64 {
	if sense == opt.Maximize {
		return value
	}
	return -value
}

// Run fits OLS, then runs each optimizer in order. ctx is checked between
// optimizers; a running optimizer is never interrupted.
func Run(ctx context.Context, in Input) (*Report, error) {
	if err := in.Data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	if err := in.Bounds.Validate(); err != nil {
		return nil, err
	}
	if in.Bounds.Dim() != len(fit.ParamNames) {
		return nil, fmt.Errorf("%w: need %d dimensions, got %d", opt.ErrInvalidBounds, len(fit.ParamNames), in.Bounds.Dim())
	}

	ols, err := fit.OLS(in.Data)
	if err != nil {
		return nil, fmt.Errorf("closed-form fit: %w", err)
	}

	report := &Report{
		Truth:            in.Truth,
		OLS:              ols,
		OLSLogLikelihood: fit.LogLikelihood(in.Data).Evaluate(ols.Vector()),
	}
	slog.Info("Closed-form fit",
		"intercept", ols.Intercept,
		"slope", ols.Slope,
		"sigma", ols.Sigma,
		"log_likelihood", report.OLSLogLikelihood,
	)

	for _, o := range in.Optimizers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := o.Run(Objective(o.Sense(), in.Data), in.Bounds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.Name(), err)
		}
		estimate, err := fit.ParamsFromVector(result.Best)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.Name(), err)
		}

		report.Outcomes = append(report.Outcomes, Outcome{
			Name:          o.Name(),
			Sense:         o.Sense(),
			Result:        result,
			Estimate:      estimate,
			LogLikelihood: ToLogLikelihood(o.Sense(), result.Value),
		})
	}

	report.Rows = buildRows(report)
	return report, nil
}

func buildRows(r *Report) []Row {
	truth := r.Truth.Vector()
	ols := r.OLS.Vector()

	rows := make([]Row, len(fit.ParamNames))
	for i, name := range fit.ParamNames {
		rows[i] = Row{
			Parameter: name,
			True:      truth[i],
			OLS:       ols[i],
			Estimates: make([]float64, len(r.Outcomes)),
		}
		for j, o := range r.Outcomes {
			rows[i].Estimates[j] = o.Result.Best[i]
		}
	}
	return rows
}
