package opt

import (
	"errors"
	"fmt"
	"math"
)

// Configuration errors. They are returned wrapped with context, so match
// them with errors.Is.
var (
	ErrInvalidBounds         = errors.New("invalid bounds")
	ErrInvalidPopulationSize = errors.New("invalid population size")
	ErrInvalidSwarmSize      = errors.New("invalid swarm size")
	ErrInvalidConfig         = errors.New("invalid optimizer config")
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

func checkRate(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return configError("%s must be in [0, 1], got %g", name, v)
	}
	return nil
}

func checkWeight(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 1) {
		return configError("%s must be a finite value >= 0, got %g", name, v)
	}
	return nil
}
