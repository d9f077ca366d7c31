package opt

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Clerc constriction values for c1 = c2 = 2.05, with the constriction
// coefficient multiplied through:
//
//	v_next = w*v + c1*r1*(p_personal-x) + c2*r2*(p_global-x)
const (
	ConstrictionInertia   = 0.7298437881283576
	ConstrictionCognitive = 1.496179765663133
	ConstrictionSocial    = 1.496179765663133
)

// Constriction calculates the constriction coefficient for acceleration
// constants c1 and c2. c1+c2 should be greater than (but close to) 4.
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

// PSOConfig holds every hyperparameter of the particle swarm.
type PSOConfig struct {
	Particles  int   // swarm size, >= 1
	Iterations int   // iterations after initialization, >= 1
	Seed       int64 // root of every random draw of the run

	Inertia   float64 // weight of the current velocity
	Cognitive float64 // pull toward the particle's personal best
	Social    float64 // pull toward the swarm's global best

	// InitialVelocity is the half-width of the uniform initial velocity as
	// a fraction of each dimension's width; 0 starts particles at rest
	InitialVelocity float64

	// MaxVelocity caps |v| per dimension as a fraction of the width
	MaxVelocity float64

	// Workers bounds the goroutines evaluating one iteration
	Workers int

	Convergence ConvergenceConfig
}

// DefaultPSOConfig returns a complete configuration using the Clerc
// constriction weights.
func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		Particles:       30,
		Iterations:      1000,
		Seed:            42,
		Inertia:         ConstrictionInertia,
		Cognitive:       ConstrictionCognitive,
		Social:          ConstrictionSocial,
		InitialVelocity: 0.1,
		MaxVelocity:     0.5,
		Workers:         1,
		Convergence:     DefaultConvergenceConfig(),
	}
}

// Validate checks the configuration without consuming randomness.
func (c PSOConfig) Validate() error {
	if c.Particles < 1 {
		return fmt.Errorf("%w: need at least 1 particle, got %d", ErrInvalidSwarmSize, c.Particles)
	}
	if c.Iterations < 1 {
		return configError("iterations must be >= 1, got %d", c.Iterations)
	}
	if err := checkWeight("inertia", c.Inertia); err != nil {
		return err
	}
	if err := checkWeight("cognitive weight", c.Cognitive); err != nil {
		return err
	}
	if err := checkWeight("social weight", c.Social); err != nil {
		return err
	}
	if err := checkRate("initial velocity", c.InitialVelocity); err != nil {
		return err
	}
	if !(c.MaxVelocity > 0) || c.MaxVelocity > 1 {
		return configError("max velocity must be in (0, 1], got %g", c.MaxVelocity)
	}
	if c.Workers < 1 {
		return configError("workers must be >= 1, got %d", c.Workers)
	}
	return c.Convergence.validate()
}

// PSO is a global-best particle swarm. It minimizes the objective.
type PSO struct {
	cfg  PSOConfig
	opts runOptions
}

// NewPSO validates cfg and returns a ready optimizer.
func NewPSO(cfg PSOConfig, opts ...Option) (*PSO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pso: %w", err)
	}
	if cfg.Particles == 1 {
		slog.Warn("PSO with a single particle has no social term")
	}
	return &PSO{cfg: cfg, opts: collectOptions(opts)}, nil
}

func (p *PSO) Name() string { return "pso" }

func (p *PSO) Sense() Sense { return Minimize }

// Config returns the configuration the optimizer was built with.
func (p *PSO) Config() PSOConfig { return p.cfg }

type particle struct {
	pos      []float64
	vel      []float64
	cost     float64
	bestPos  []float64
	bestCost float64
}

// globalBest is the only state shared between particles. Updates go
// through offer, which replaces the cell only with a strictly better
// (cost, index) pair, so concurrent offers commute.
type globalBest struct {
	mu    sync.Mutex
	pos   []float64
	cost  float64
	index int
}

func newGlobalBest() *globalBest {
	return &globalBest{cost: math.Inf(1), index: math.MaxInt}
}

func (g *globalBest) offer(index int, pos []float64, cost float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cost < g.cost || (cost == g.cost && index < g.index) || g.pos == nil {
		g.pos = append(g.pos[:0], pos...)
		g.cost = cost
		g.index = index
		return true
	}
	return false
}

func (g *globalBest) snapshot() ([]float64, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]float64(nil), g.pos...), g.cost
}

// Run moves the swarm for the configured number of iterations and returns
// the global best. Every particle of an iteration moves against the
// global best as it stood when the iteration began.
func (p *PSO) Run(obj Objective, bounds Bounds) (*Result, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("pso: %w", err)
	}

	cfg := p.cfg
	start := time.Now()
	ev := newEvaluator(obj, Minimize)
	tracker := NewConvergenceTracker(cfg.Convergence, Minimize)
	logEvery := max(1, cfg.Iterations/10)
	dim := bounds.Dim()

	slog.Info("Starting PSO",
		"particles", cfg.Particles,
		"iterations", cfg.Iterations,
		"dim", dim,
		"seed", cfg.Seed,
		"inertia", cfg.Inertia,
		"cognitive", cfg.Cognitive,
		"social", cfg.Social,
	)

	swarm := make([]*particle, cfg.Particles)
	gbest := newGlobalBest()
	forEach(cfg.Workers, len(swarm), func(i int) {
		rng := stream(cfg.Seed, 0, i)
		pos := bounds.Uniform(rng)
		vel := make([]float64, dim)
		if cfg.InitialVelocity > 0 {
			for j := range vel {
				vel[j] = (2*rng.Float64() - 1) * cfg.InitialVelocity * bounds.Width(j)
			}
		}
		cost := ev.eval(pos)
		swarm[i] = &particle{
			pos:      pos,
			vel:      vel,
			cost:     cost,
			bestPos:  append([]float64(nil), pos...),
			bestCost: cost,
		}
		gbest.offer(i, swarm[i].bestPos, cost)
	})

	_, bestCost := gbest.snapshot()
	history := make([]float64, 0, cfg.Iterations+1)
	history = append(history, bestCost)
	tracker.Update(bestCost)
	p.opts.notify(0, func() [][]float64 { return positionsOf(swarm) }, bestCost)

	for iter := 1; iter <= cfg.Iterations; iter++ {
		guide, _ := gbest.snapshot()

		forEach(cfg.Workers, len(swarm), func(i int) {
			par := swarm[i]
			rng := stream(cfg.Seed, iter, i)
			for j := range par.pos {
				// r1 and r2 are drawn per dimension
				r1 := rng.Float64()
				r2 := rng.Float64()
				v := cfg.Inertia*par.vel[j] +
					cfg.Cognitive*r1*(par.bestPos[j]-par.pos[j]) +
					cfg.Social*r2*(guide[j]-par.pos[j])
				if vmax := cfg.MaxVelocity * bounds.Width(j); math.Abs(v) > vmax {
					v = math.Copysign(vmax, v)
				}

				x := par.pos[j] + v
				if x < bounds.Lower[j] {
					x, v = bounds.Lower[j], 0
				} else if x > bounds.Upper[j] {
					x, v = bounds.Upper[j], 0
				}
				par.pos[j] = x
				par.vel[j] = v
			}

			par.cost = ev.eval(par.pos)
			if par.cost < par.bestCost {
				copy(par.bestPos, par.pos)
				par.bestCost = par.cost
				gbest.offer(i, par.bestPos, par.bestCost)
			}
		})

		_, bestCost = gbest.snapshot()
		history = append(history, bestCost)
		tracker.Update(bestCost)
		p.opts.notify(iter, func() [][]float64 { return positionsOf(swarm) }, bestCost)

		if iter%logEvery == 0 {
			slog.Debug("PSO iteration", "iteration", iter, "best_cost", bestCost)
		}
	}

	bestPos, bestCost := gbest.snapshot()
	result := &Result{
		Optimizer:   p.Name(),
		Sense:       Minimize,
		Best:        bestPos,
		Value:       bestCost,
		Seed:        cfg.Seed,
		Iterations:  cfg.Iterations,
		Evaluations: int(ev.calls.Load()),
		Degenerate:  int(ev.degenerate.Load()),
		History:     history,
		Stabilized:  tracker.Converged(),
		Elapsed:     time.Since(start),
	}

	slog.Info("PSO complete",
		"best_cost", result.Value,
		"evaluations", result.Evaluations,
		"degenerate", result.Degenerate,
		"stabilized", result.Stabilized,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func positionsOf(swarm []*particle) [][]float64 {
	out := make([][]float64, len(swarm))
	for i, p := range swarm {
		out[i] = p.pos
	}
	return out
}
