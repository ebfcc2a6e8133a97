//go:build unit
// +build unit

package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/qublab-team/qublab-engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdamOnShiftedQuadratic(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	assert.Equal(t, "adam", o.Name())

	// Minimum 0 at (3, -2).
	cost := func(p []float64) (float64, error) {
		return (p[0]-3)*(p[0]-3) + (p[1]+2)*(p[1]+2), nil
	}
	initial := []float64{0, 0}
	result, err := o.Optimize(context.Background(), cost, initial, 500, 0)
	require.Nil(t, err)

	assert.Equal(t, "adam", result.OptimizerUsed)
	assert.Less(t, result.OptimalValue, 1e-2)
	assert.InDelta(t, 3, result.OptimalParameters[0], 0.1)
	assert.InDelta(t, -2, result.OptimalParameters[1], 0.1)
	f0, _ := cost(initial)
	assert.LessOrEqual(t, result.OptimalValue, f0)
}

func TestAdamHistoryDecreasesOnConvexCost(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	result, err := o.Optimize(context.Background(), sphere, []float64{2, -2}, 100, 0)
	require.Nil(t, err)
	require.GreaterOrEqual(t, len(result.ConvergenceHistory), 2)
	first := result.ConvergenceHistory[0]
	last := result.ConvergenceHistory[len(result.ConvergenceHistory)-1]
	assert.Less(t, last, first)
}

func TestAdamConvergesWithTolerance(t *testing.T) {
	// A flat cost trips the convergence window immediately.
	o := NewAdam(NewAdamSetting())
	flat := func([]float64) (float64, error) { return 2.0, nil }
	result, err := o.Optimize(context.Background(), flat, []float64{1, 1}, 1000, 1e-6)
	require.Nil(t, err)
	assert.Equal(t, NewAdamSetting().CheckWindow+1, len(result.ConvergenceHistory))
	assert.Equal(t, 2.0, result.OptimalValue)
}

func TestAdamProgressCalledEveryIteration(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	calls := 0
	o.SetProgress(func(iteration int, cost float64, params []float64) {
		calls++
		assert.Equal(t, calls, iteration)
	})
	result, err := o.Optimize(context.Background(), sphere, []float64{1}, 20, 0)
	require.Nil(t, err)
	assert.Equal(t, len(result.ConvergenceHistory), calls)
}

func TestAdamCancellationReturnsBestSoFar(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	ctx, cancel := context.WithCancel(context.Background())
	iterationsSeen := 0
	o.SetProgress(func(iteration int, cost float64, params []float64) {
		iterationsSeen = iteration
		if iteration == 5 {
			cancel()
		}
	})
	result, err := o.Optimize(ctx, sphere, []float64{1, 1}, 1000, 0)
	require.Nil(t, err)
	assert.Equal(t, 5, iterationsSeen)
	assert.Equal(t, 5, len(result.ConvergenceHistory))
	f0, _ := sphere([]float64{1, 1})
	assert.LessOrEqual(t, result.OptimalValue, f0)
}

func TestAdamPropagatesCostError(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	boom := errors.New("probe failed")
	evals := 0
	cost := func(p []float64) (float64, error) {
		evals++
		if evals > 4 {
			return 0, boom
		}
		return sphere(p)
	}
	_, err := o.Optimize(context.Background(), cost, []float64{1, 1}, 100, 0)
	assert.ErrorIs(t, err, boom)
}

func TestAdamAbortsOnNonFiniteCost(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	cost := func(p []float64) (float64, error) {
		if p[0] < 0.5 {
			return math.Inf(1), nil
		}
		return sphere(p)
	}
	_, err := o.Optimize(context.Background(), cost, []float64{1}, 1000, 0)
	assert.ErrorIs(t, err, core.ErrNonFiniteCostValue)
}

func TestAdamValidatesInputs(t *testing.T) {
	o := NewAdam(NewAdamSetting())
	_, err := o.Optimize(context.Background(), sphere, []float64{}, 10, 0)
	assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
	_, err = o.Optimize(context.Background(), sphere, []float64{1}, -1, 0)
	assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
}
