package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvergenceTracker_BasicConvergence(t *testing.T) {
	config := ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01, // 1% improvement required
	}
	tracker := NewConvergenceTracker(config, Minimize)

	assert.True(t, math.IsInf(tracker.Best(), 1), "initial best should be +Inf")

	// First update - no convergence
	assert.False(t, tracker.Update(1.0))
	assert.Equal(t, 1.0, tracker.Best())

	// Significant improvement - reset stale counter
	assert.False(t, tracker.Update(0.8)) // 20% improvement
	assert.Equal(t, 0, tracker.StaleCount())

	// Small improvements below threshold increment the stale counter
	assert.False(t, tracker.Update(0.795)) // (0.8-0.795)/1 < 1%
	assert.Equal(t, 1, tracker.StaleCount())

	assert.False(t, tracker.Update(0.796))
	assert.Equal(t, 2, tracker.StaleCount())

	assert.True(t, tracker.Update(0.797), "should converge after patience exceeded (3/3)")
	assert.Equal(t, 3, tracker.StaleCount())
	assert.True(t, tracker.Converged())
	assert.Equal(t, 0.795, tracker.Best())
}

func TestConvergenceTracker_Maximize(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.01}, Maximize)

	assert.True(t, math.IsInf(tracker.Best(), -1))

	tracker.Update(-5000)
	tracker.Update(-4000) // 20% relative to |old|
	assert.Equal(t, 0, tracker.StaleCount())

	tracker.Update(-3999.5)
	assert.Equal(t, 1, tracker.StaleCount())

	// getting worse is never progress
	assert.True(t, tracker.Update(-4500))
	assert.Equal(t, -3999.5, tracker.Best())
}

func TestConvergenceTracker_ImprovementResetsStaleCount(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.05}, Minimize)

	tracker.Update(100)
	tracker.Update(99) // 1% < 5%
	assert.Equal(t, 1, tracker.StaleCount())

	tracker.Update(94) // 6% from last significant
	assert.Equal(t, 0, tracker.StaleCount())
	assert.Equal(t, 94.0, tracker.Best())
}

func TestConvergenceTracker_InfiniteStart(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.1}, Maximize)

	// a degenerate first value must not make every later value look stale
	tracker.Update(math.Inf(-1))
	assert.False(t, tracker.Update(-10))
	assert.Equal(t, 0, tracker.StaleCount())
}

func TestConvergenceTracker_Disabled(t *testing.T) {
	tracker := NewConvergenceTracker(DisabledConvergenceConfig(), Minimize)

	for i := 0; i < 100; i++ {
		assert.False(t, tracker.Update(1.0), "should never converge when disabled")
	}
	assert.False(t, tracker.Converged())
	assert.Empty(t, tracker.History())
}

func TestConvergenceTracker_Reset(t *testing.T) {
	tracker := NewConvergenceTracker(DefaultConvergenceConfig(), Minimize)
	tracker.Update(3)
	tracker.Update(2)

	tracker.Reset()
	assert.Empty(t, tracker.History())
	assert.Equal(t, 0, tracker.StaleCount())
	assert.True(t, math.IsInf(tracker.Best(), 1))
}
