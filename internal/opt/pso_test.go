package opt

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallPSOConfig() PSOConfig {
	cfg := DefaultPSOConfig()
	cfg.Particles = 20
	cfg.Iterations = 200
	cfg.Seed = 11
	return cfg
}

func TestConstriction(t *testing.T) {
	k := Constriction(2.05, 2.05)
	assert.InDelta(t, ConstrictionInertia, k, 1e-12)
	assert.InDelta(t, ConstrictionSocial, k*2.05, 1e-12)
}

func TestNewPSO_RejectsEmptySwarm(t *testing.T) {
	cfg := smallPSOConfig()
	cfg.Particles = 0

	pso, err := NewPSO(cfg)
	require.ErrorIs(t, err, ErrInvalidSwarmSize)
	assert.Nil(t, pso)
}

func TestPSOConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*PSOConfig)
	}{
		{"zero iterations", func(c *PSOConfig) { c.Iterations = 0 }},
		{"negative inertia", func(c *PSOConfig) { c.Inertia = -1 }},
		{"nan cognitive", func(c *PSOConfig) { c.Cognitive = math.NaN() }},
		{"infinite social", func(c *PSOConfig) { c.Social = math.Inf(1) }},
		{"initial velocity above one", func(c *PSOConfig) { c.InitialVelocity = 2 }},
		{"zero max velocity", func(c *PSOConfig) { c.MaxVelocity = 0 }},
		{"no workers", func(c *PSOConfig) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallPSOConfig()
			tt.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	require.NoError(t, DefaultPSOConfig().Validate())
}

func TestPSO_InvalidBoundsFailBeforeSearch(t *testing.T) {
	pso, err := NewPSO(smallPSOConfig())
	require.NoError(t, err)

	obj := &countingObjective{fn: sphere}
	_, err = pso.Run(obj, Bounds{Lower: []float64{0}, Upper: []float64{1, 2}})
	require.ErrorIs(t, err, ErrInvalidBounds)
	assert.Zero(t, obj.calls.Load())
}

func TestPSO_MinimizesSphere(t *testing.T) {
	pso, err := NewPSO(smallPSOConfig())
	require.NoError(t, err)

	result, err := pso.Run(ObjectiveFunc(sphere), cube(t, 3, -10, 10))
	require.NoError(t, err)

	assert.Equal(t, "pso", result.Optimizer)
	assert.Equal(t, Minimize, result.Sense)
	assert.Less(t, result.Value, 1e-3)
	for i, v := range result.Best {
		assert.InDelta(t, 0, v, 0.05, "parameter %d", i)
	}
	assert.Equal(t, sphere(result.Best), result.Value)
	assert.Equal(t, 20*201, result.Evaluations)
	assert.Len(t, result.History, 201)
}

func TestPSO_BoundsContainment(t *testing.T) {
	bounds, err := NewBounds([]float64{0, -1}, []float64{1, 1})
	require.NoError(t, err)

	steps := 0
	cfg := smallPSOConfig()
	cfg.MaxVelocity = 1
	cfg.InitialVelocity = 1
	pso, err := NewPSO(cfg, WithObserver(func(s Snapshot) {
		steps++
		for _, x := range s.Positions {
			require.True(t, bounds.Contains(x), "step %d: %v outside bounds", s.Step, x)
		}
	}))
	require.NoError(t, err)

	// optimum in a corner outside the box
	obj := ObjectiveFunc(func(x []float64) float64 {
		return sphere([]float64{x[0] - 5, x[1] + 5})
	})
	result, err := pso.Run(obj, bounds)
	require.NoError(t, err)

	assert.Equal(t, cfg.Iterations+1, steps)
	assert.InDelta(t, 1, result.Best[0], 1e-9)
	assert.InDelta(t, -1, result.Best[1], 1e-9)
}

func TestPSO_GlobalBestMonotonicity(t *testing.T) {
	var observed []float64
	pso, err := NewPSO(smallPSOConfig(), WithObserver(func(s Snapshot) {
		observed = append(observed, s.Best)
	}))
	require.NoError(t, err)

	rastrigin := ObjectiveFunc(func(x []float64) float64 {
		sum := 10 * float64(len(x))
		for _, v := range x {
			sum += v*v - 10*math.Cos(2*math.Pi*v)
		}
		return sum
	})
	result, err := pso.Run(rastrigin, cube(t, 4, -5.12, 5.12))
	require.NoError(t, err)

	require.Equal(t, result.History, observed)
	for i := 1; i < len(result.History); i++ {
		require.LessOrEqual(t, result.History[i], result.History[i-1], "iteration %d", i)
	}
	assert.Equal(t, result.History[len(result.History)-1], result.Value)
}

func TestPSO_Deterministic(t *testing.T) {
	run := func(workers int) *Result {
		cfg := smallPSOConfig()
		cfg.Workers = workers
		pso, err := NewPSO(cfg)
		require.NoError(t, err)
		result, err := pso.Run(ObjectiveFunc(sphere), cube(t, 3, -10, 10))
		require.NoError(t, err)
		return result
	}

	first := run(1)
	second := run(1)
	parallel := run(6)

	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.History, second.History)

	assert.Equal(t, first.Best, parallel.Best)
	assert.Equal(t, first.History, parallel.History)
}

func TestPSO_SingleParticle(t *testing.T) {
	cfg := smallPSOConfig()
	cfg.Particles = 1

	pso, err := NewPSO(cfg)
	require.NoError(t, err)

	result, err := pso.Run(ObjectiveFunc(sphere), cube(t, 2, -1, 1))
	require.NoError(t, err)
	assert.Len(t, result.Best, 2)
	assert.Equal(t, cfg.Iterations+1, result.Evaluations)
}

func TestPSO_DegenerateCandidatesAreContained(t *testing.T) {
	obj := ObjectiveFunc(func(x []float64) float64 {
		if x[0] <= 0 {
			return math.Inf(-1) // would win every comparison if not contained
		}
		return sphere([]float64{x[0] - 1, x[1]})
	})

	pso, err := NewPSO(smallPSOConfig())
	require.NoError(t, err)

	result, err := pso.Run(obj, cube(t, 2, -2, 2))
	require.NoError(t, err)
	assert.Positive(t, result.Degenerate)
	assert.Greater(t, result.Best[0], 0.0)
	assert.InDelta(t, 0, result.Value, 1e-3)
}

func TestGlobalBest_ConcurrentOffers(t *testing.T) {
	gb := newGlobalBest()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cost := float64(100 - i)
			gb.offer(i, []float64{cost}, cost)
		}()
	}
	wg.Wait()

	pos, cost := gb.snapshot()
	assert.Equal(t, 1.0, cost)
	assert.Equal(t, []float64{1}, pos)
	assert.Equal(t, 99, gb.index)
}

func TestGlobalBest_TiesGoToLowerIndex(t *testing.T) {
	gb := newGlobalBest()
	gb.offer(5, []float64{5}, 1)
	gb.offer(2, []float64{2}, 1)
	gb.offer(9, []float64{9}, 1)

	pos, _ := gb.snapshot()
	assert.Equal(t, []float64{2}, pos)
	assert.False(t, gb.offer(3, []float64{3}, 2))
}
