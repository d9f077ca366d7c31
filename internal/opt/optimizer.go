package opt

import (
	"math"
	"time"
)

// Sense tells whether an optimizer treats objective values as fitness
// (larger is better) or cost (smaller is better).
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Better reports whether a is strictly better than b under s.
func (s Sense) Better(a, b float64) bool {
	if s == Maximize {
		return a > b
	}
	return a < b
}

// Worst returns the dominated value substituted for degenerate evaluations.
func (s Sense) Worst() float64 {
	if s == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Objective maps a parameter vector to a scalar. Implementations must be
// pure: identical inputs give identical outputs and there is no hidden
// state, so evaluations may run concurrently.
type Objective interface {
	Evaluate(params []float64) float64
}

// ObjectiveFunc adapts a plain function to the Objective interface.
type ObjectiveFunc func(params []float64) float64

func (f ObjectiveFunc) Evaluate(params []float64) float64 {
	return f(params)
}

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Name identifies the algorithm in reports ("ga", "pso", ...)
	Name() string

	// Sense is the direction in which Run drives the objective
	Sense() Sense

	// Run searches bounds for the best value of obj. Configuration errors
	// are returned before any random draw is made.
	Run(obj Objective, bounds Bounds) (*Result, error)
}

// Result is the outcome of a completed search. It is not modified after
// Run returns.
type Result struct {
	Optimizer string
	Sense     Sense

	// Best is the best parameter vector seen during the whole run
	Best []float64

	// Value is obj(Best) in the optimizer's own sign convention
	Value float64

	Seed        int64
	Iterations  int // generations or iterations executed
	Evaluations int // objective calls
	Degenerate  int // evaluations replaced by the dominated value

	// History[i] is the best value known after step i; index 0 is the
	// initial population or swarm.
	History []float64

	// Stabilized reports whether the best value stopped improving before
	// the budget ran out. It never stops a run early.
	Stabilized bool

	Elapsed time.Duration
}

// Snapshot is handed to an Observer after initialization and after every
// generation or iteration. Positions must not be retained or modified.
type Snapshot struct {
	Step      int
	Positions [][]float64
	Best      float64
}

// Observer receives a Snapshot after every step of a run.
type Observer func(Snapshot)

// Option customizes a run without touching search hyperparameters.
type Option func(*runOptions)

type runOptions struct {
	observer Observer
}

// WithObserver registers fn to be called synchronously after every step.
func WithObserver(fn Observer) Option {
	return func(o *runOptions) {
		o.observer = fn
	}
}

func collectOptions(opts []Option) runOptions {
	var o runOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o runOptions) notify(step int, positions func() [][]float64, best float64) {
	if o.observer != nil {
		o.observer(Snapshot{Step: step, Positions: positions(), Best: best})
	}
}
