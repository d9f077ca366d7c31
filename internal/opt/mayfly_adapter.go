package opt

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/mayfly"
)

// MayflyConfig configures the external Mayfly optimizer.
type MayflyConfig struct {
	Iterations     int
	PopulationSize int // the library needs at least 20
	Seed           int64
}

// Validate checks the configuration.
func (c MayflyConfig) Validate() error {
	if c.PopulationSize < 20 {
		return fmt.Errorf("%w: mayfly needs at least 20 individuals, got %d", ErrInvalidPopulationSize, c.PopulationSize)
	}
	if c.Iterations < 1 {
		return configError("iterations must be >= 1, got %d", c.Iterations)
	}
	return nil
}

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface.
// The library only takes one scalar bound for all dimensions, so the
// adapter searches the unit cube and maps each point into Bounds.
type MayflyAdapter struct {
	cfg MayflyConfig
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(cfg MayflyConfig) (*MayflyAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mayfly: %w", err)
	}
	return &MayflyAdapter{cfg: cfg}, nil
}

func (m *MayflyAdapter) Name() string { return "mayfly" }

func (m *MayflyAdapter) Sense() Sense { return Minimize }

// Run executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Run(obj Objective, bounds Bounds) (*Result, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("mayfly: %w", err)
	}

	start := time.Now()
	ev := newEvaluator(obj, Minimize)

	slog.Info("Starting Mayfly",
		"population", m.cfg.PopulationSize,
		"iterations", m.cfg.Iterations,
		"dim", bounds.Dim(),
		"seed", m.cfg.Seed,
	)

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		cost := ev.eval(fromUnit(u, bounds))
		// keep the library's arithmetic finite
		if math.IsInf(cost, 1) {
			return math.MaxFloat64
		}
		return cost
	}
	config.ProblemSize = bounds.Dim()
	config.MaxIterations = m.cfg.Iterations
	config.NPop = m.cfg.PopulationSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.cfg.Seed))

	out, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly: %w", err)
	}

	best := fromUnit(out.GlobalBest.Position, bounds)
	value := ev.eval(best)

	result := &Result{
		Optimizer:   m.Name(),
		Sense:       Minimize,
		Best:        best,
		Value:       value,
		Seed:        m.cfg.Seed,
		Iterations:  m.cfg.Iterations,
		Evaluations: int(ev.calls.Load()),
		Degenerate:  int(ev.degenerate.Load()),
		History:     []float64{value},
		Elapsed:     time.Since(start),
	}

	slog.Info("Mayfly complete",
		"best_cost", result.Value,
		"evaluations", result.Evaluations,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// fromUnit maps u from the unit cube into bounds, clamping first.
func fromUnit(u []float64, bounds Bounds) []float64 {
	x := make([]float64, bounds.Dim())
	for i := range x {
		var t float64
		if i < len(u) {
			t = clamp(u[i], 0, 1)
		}
		x[i] = bounds.Lower[i] + t*bounds.Width(i)
	}
	return x
}
