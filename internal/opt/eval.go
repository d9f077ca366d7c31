package opt

import (
	"math"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// forEach calls fn(i) for i in [0, n) on at most workers goroutines and
// returns once every call has finished.
func forEach(workers, n int, fn func(i int)) {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i := 0; i < n; i++ {
		p.Go(func() {
			fn(i)
		})
	}
	p.Wait()
}

// evaluator wraps an objective with degenerate-value containment and
// call counting. It is safe for concurrent use.
type evaluator struct {
	obj        Objective
	sense      Sense
	calls      atomic.Int64
	degenerate atomic.Int64
}

func newEvaluator(obj Objective, sense Sense) *evaluator {
	return &evaluator{obj: obj, sense: sense}
}

// eval returns obj(x), or the dominated value for the sense when obj
// yields NaN or an infinity.
func (e *evaluator) eval(x []float64) float64 {
	e.calls.Add(1)
	v := e.obj.Evaluate(x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.degenerate.Add(1)
		return e.sense.Worst()
	}
	return v
}
