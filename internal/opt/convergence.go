package opt

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when a run's best value counts as stabilized.
// Stabilization is reported in Result; it never shortens a run.
type ConvergenceConfig struct {
	// Enabled controls whether stabilization is tracked at all
	Enabled bool

	// Patience is the number of consecutive steps without significant
	// improvement after which the best value counts as stable
	Patience int

	// Threshold is the minimum relative improvement that counts as progress.
	// Relative improvement = |old - new| / max(|old|, 1) in the improving
	// direction.
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for stabilization tracking
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  100,
		Threshold: 1e-9,
	}
}

// DisabledConvergenceConfig returns a config with tracking disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

func (c ConvergenceConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Patience < 1 {
		return configError("convergence patience must be >= 1, got %d", c.Patience)
	}
	if c.Threshold < 0 || math.IsNaN(c.Threshold) {
		return configError("convergence threshold must be >= 0, got %g", c.Threshold)
	}
	return nil
}

// ConvergenceTracker follows the best value of a run step by step.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	sense           Sense
	history         []float64
	best            float64 // Best value ever seen
	lastSignificant float64 // Last value that was a significant improvement
	staleCount      int     // Steps without significant improvement
}

// NewConvergenceTracker creates a tracker for values optimized in the given sense
func NewConvergenceTracker(config ConvergenceConfig, sense Sense) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		sense:           sense,
		history:         []float64{},
		best:            sense.Worst(),
		lastSignificant: sense.Worst(),
	}
}

// Update records the best value after a step and returns true once the
// value has been stable for Patience steps.
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, value)

	if c.sense.Better(value, c.best) {
		c.best = value
	}

	if len(c.history) == 1 || math.IsInf(c.lastSignificant, 0) {
		c.lastSignificant = value
		c.staleCount = 0
		return false
	}

	improvement := value - c.lastSignificant
	if c.sense == Minimize {
		improvement = -improvement
	}
	relative := improvement / math.Max(math.Abs(c.lastSignificant), 1)

	if relative > c.config.Threshold {
		c.lastSignificant = value
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount == c.config.Patience {
		slog.Debug("Best value stabilized",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best", c.best,
		)
	}
	return c.staleCount >= c.config.Patience
}

// Converged reports whether the last Update found the value stable.
func (c *ConvergenceTracker) Converged() bool {
	return c.config.Enabled && c.staleCount >= c.config.Patience
}

// Best returns the best value seen so far
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns the full value history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of steps without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.best = c.sense.Worst()
	c.lastSignificant = c.sense.Worst()
	c.staleCount = 0
}
