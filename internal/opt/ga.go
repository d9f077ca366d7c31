package opt

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// GAConfig holds every hyperparameter of the genetic algorithm. Nothing is
// defaulted: a zero field is a configuration error.
type GAConfig struct {
	PopulationSize int   // individuals per generation, >= 2
	Generations    int   // generations after the initial population, >= 1
	Seed           int64 // root of every random draw of the run

	// TournamentSize is the number of entrants per parent selection
	TournamentSize int

	// CrossoverRate is the probability that a child blends both parents
	// instead of copying the first one
	CrossoverRate float64

	// MutationRate is the per-component probability of a Gaussian perturbation
	MutationRate float64

	// MutationScale is the perturbation standard deviation as a fraction of
	// each dimension's width
	MutationScale float64

	// Workers bounds the goroutines evaluating one generation
	Workers int

	Convergence ConvergenceConfig
}

// DefaultGAConfig returns a complete configuration suitable for
// three-parameter likelihood problems.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize: 100,
		Generations:    1000,
		Seed:           42,
		TournamentSize: 3,
		CrossoverRate:  0.9,
		MutationRate:   0.2,
		MutationScale:  0.01,
		Workers:        1,
		Convergence:    DefaultConvergenceConfig(),
	}
}

// Validate checks the configuration without consuming randomness.
func (c GAConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("%w: need at least 2 individuals, got %d", ErrInvalidPopulationSize, c.PopulationSize)
	}
	if c.Generations < 1 {
		return configError("generations must be >= 1, got %d", c.Generations)
	}
	if c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize {
		return configError("tournament size must be in [1, %d], got %d", c.PopulationSize, c.TournamentSize)
	}
	if err := checkRate("crossover rate", c.CrossoverRate); err != nil {
		return err
	}
	if err := checkRate("mutation rate", c.MutationRate); err != nil {
		return err
	}
	if !(c.MutationScale > 0) || c.MutationScale > 1 {
		return configError("mutation scale must be in (0, 1], got %g", c.MutationScale)
	}
	if c.Workers < 1 {
		return configError("workers must be >= 1, got %d", c.Workers)
	}
	return c.Convergence.validate()
}

// GA is a generational genetic algorithm with tournament selection,
// whole-arithmetic crossover, Gaussian mutation and single-individual
// elitism. It maximizes the objective.
type GA struct {
	cfg  GAConfig
	opts runOptions
}

// NewGA validates cfg and returns a ready optimizer.
func NewGA(cfg GAConfig, opts ...Option) (*GA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ga: %w", err)
	}
	return &GA{cfg: cfg, opts: collectOptions(opts)}, nil
}

func (g *GA) Name() string { return "ga" }

func (g *GA) Sense() Sense { return Maximize }

// Config returns the configuration the optimizer was built with.
func (g *GA) Config() GAConfig { return g.cfg }

type individual struct {
	genes   []float64
	fitness float64
}

func (ind individual) clone() individual {
	return individual{genes: append([]float64(nil), ind.genes...), fitness: ind.fitness}
}

// Run evolves the population for the configured number of generations and
// returns the best individual observed over the whole run.
func (g *GA) Run(obj Objective, bounds Bounds) (*Result, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("ga: %w", err)
	}

	cfg := g.cfg
	start := time.Now()
	ev := newEvaluator(obj, Maximize)
	tracker := NewConvergenceTracker(cfg.Convergence, Maximize)
	logEvery := max(1, cfg.Generations/10)

	slog.Info("Starting GA",
		"population", cfg.PopulationSize,
		"generations", cfg.Generations,
		"dim", bounds.Dim(),
		"seed", cfg.Seed,
	)

	pop := make([]individual, cfg.PopulationSize)
	forEach(cfg.Workers, len(pop), func(i int) {
		genes := bounds.Uniform(stream(cfg.Seed, 0, i))
		pop[i] = individual{genes: genes, fitness: ev.eval(genes)}
	})

	best := pop[fittest(pop)].clone()
	history := make([]float64, 0, cfg.Generations+1)
	history = append(history, best.fitness)
	tracker.Update(best.fitness)
	g.opts.notify(0, func() [][]float64 { return genesOf(pop) }, best.fitness)

	for gen := 1; gen <= cfg.Generations; gen++ {
		next := make([]individual, cfg.PopulationSize)
		next[0] = pop[fittest(pop)].clone()

		forEach(cfg.Workers, len(next)-1, func(k int) {
			i := k + 1
			rng := stream(cfg.Seed, gen, i)
			p1 := tournament(pop, cfg.TournamentSize, rng)
			p2 := tournament(pop, cfg.TournamentSize, rng)
			child := crossover(p1.genes, p2.genes, cfg.CrossoverRate, rng)
			mutate(child, bounds, cfg.MutationRate, cfg.MutationScale, rng)
			next[i] = individual{genes: child, fitness: ev.eval(child)}
		})
		pop = next

		if champ := pop[fittest(pop)]; champ.fitness > best.fitness {
			best = champ.clone()
		}
		history = append(history, best.fitness)
		tracker.Update(best.fitness)
		g.opts.notify(gen, func() [][]float64 { return genesOf(pop) }, best.fitness)

		if gen%logEvery == 0 {
			slog.Debug("GA generation", "generation", gen, "best_fitness", best.fitness)
		}
	}

	result := &Result{
		Optimizer:   g.Name(),
		Sense:       Maximize,
		Best:        best.genes,
		Value:       best.fitness,
		Seed:        cfg.Seed,
		Iterations:  cfg.Generations,
		Evaluations: int(ev.calls.Load()),
		Degenerate:  int(ev.degenerate.Load()),
		History:     history,
		Stabilized:  tracker.Converged(),
		Elapsed:     time.Since(start),
	}

	slog.Info("GA complete",
		"best_fitness", result.Value,
		"evaluations", result.Evaluations,
		"degenerate", result.Degenerate,
		"stabilized", result.Stabilized,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// fittest returns the index of the best individual; ties go to the lowest
// index so the carried-over elite keeps its place.
func fittest(pop []individual) int {
	best := 0
	for i := 1; i < len(pop); i++ {
		if pop[i].fitness > pop[best].fitness {
			best = i
		}
	}
	return best
}

// tournament draws size entrants with replacement and returns the fittest.
// The first drawn wins ties.
func tournament(pop []individual, size int, rng *rand.Rand) individual {
	winner := pop[rng.IntN(len(pop))]
	for n := 1; n < size; n++ {
		if c := pop[rng.IntN(len(pop))]; c.fitness > winner.fitness {
			winner = c
		}
	}
	return winner
}

// crossover blends p1 and p2 along the line through both, with one weight
// shared by all components, extending a quarter beyond either parent.
func crossover(p1, p2 []float64, rate float64, rng *rand.Rand) []float64 {
	child := make([]float64, len(p1))
	if rng.Float64() >= rate {
		copy(child, p1)
		return child
	}
	alpha := -0.25 + 1.5*rng.Float64()
	for j := range child {
		child[j] = p1[j] + alpha*(p2[j]-p1[j])
	}
	return child
}

// mutate perturbs components in place and clamps the result into bounds.
func mutate(x []float64, bounds Bounds, rate, scale float64, rng *rand.Rand) {
	for j := range x {
		if rng.Float64() < rate {
			x[j] += rng.NormFloat64() * scale * bounds.Width(j)
		}
	}
	bounds.ClampVector(x)
}

func genesOf(pop []individual) [][]float64 {
	out := make([][]float64, len(pop))
	for i := range pop {
		out[i] = pop[i].genes
	}
	return out
}
