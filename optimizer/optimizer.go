package optimizer

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"gonum.org/v1/gonum/stat"
)

// CostFunc is the opaque objective consumed by every optimizer. It must be
// pure and deterministic for frozen problem data; derivatives are never
// assumed.
type CostFunc func(params []float64) (float64, error)

// ProgressFunc is invoked synchronously at every iteration boundary with
// the per-iteration cost and the current parameters. It is advisory only;
// the returned OptimizationResult stays authoritative.
type ProgressFunc func(iteration int, cost float64, params []float64)

// Optimizer is the common black-box minimization contract. Cancellation is
// cooperative: the context is checked between iterations and an in-flight
// cost evaluation always completes, after which the best result found so
// far is returned.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, cost CostFunc, initial []float64,
		maxIterations int, tolerance float64) (*core.OptimizationResult, error)
}

// evaluate calls the cost function and promotes NaN/Inf results of
// well-behaved callers to the explicit non-finite failure.
func evaluate(cost CostFunc, params []float64) (float64, error) {
	v, err := cost(params)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(core.ErrNonFiniteCostValue, "cost is %g", v)
	}
	return v, nil
}

// bestPoint tracks the lowest evaluation seen anywhere in a run, including
// the initial parameters, which gives the monotonic-improvement guarantee
// on the reported optimum.
type bestPoint struct {
	params []float64
	value  float64
}

func newBestPoint(params []float64, value float64) *bestPoint {
	return &bestPoint{params: cloneVec(params), value: value}
}

func (b *bestPoint) consider(params []float64, value float64) {
	if value < b.value {
		copy(b.params, params)
		b.value = value
	}
}

// converged reports whether the mean absolute improvement between
// consecutive history entries over the check window fell below tolerance.
func converged(history []float64, window int, tolerance float64) bool {
	if window < 1 || len(history) < window+1 {
		return false
	}
	diffs := make([]float64, window)
	for i := 0; i < window; i++ {
		j := len(history) - window + i
		diffs[i] = math.Abs(history[j] - history[j-1])
	}
	return stat.Mean(diffs, nil) < tolerance
}

func validateStart(initial []float64, maxIterations int) error {
	if maxIterations < 1 {
		return errors.Wrapf(core.ErrMalformedParameterSet,
			"maxIterations is %d", maxIterations)
	}
	if len(initial) == 0 {
		return errors.Wrap(core.ErrMalformedParameterSet, "empty initial parameters")
	}
	if !finiteVec(initial) {
		return errors.Wrap(core.ErrMalformedParameterSet,
			"initial parameters are not finite")
	}
	return nil
}

func finiteVec(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func cloneVec(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
