//go:build unit
// +build unit

package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/qublab-team/qublab-engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestSPSAOnSphere(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 42)
	assert.Equal(t, "spsa", o.Name())

	initial := []float64{1.0, -1.5, 0.8}
	f0, _ := sphere(initial)
	result, err := o.Optimize(context.Background(), sphere, initial, 200, 0)
	require.Nil(t, err)

	assert.Equal(t, "spsa", result.OptimizerUsed)
	assert.LessOrEqual(t, result.OptimalValue, f0)
	assert.Less(t, result.OptimalValue, 0.05)
	assert.Equal(t, 3, len(result.OptimalParameters))
	assert.Greater(t, result.ExecutionTime, time.Duration(0))

	// The history trends down: the late window mean sits well below the
	// early one even though single stochastic entries may tick up.
	require.GreaterOrEqual(t, len(result.ConvergenceHistory), 40)
	head := stat.Mean(result.ConvergenceHistory[:20], nil)
	tail := stat.Mean(result.ConvergenceHistory[len(result.ConvergenceHistory)-20:], nil)
	assert.Less(t, tail, head)
}

func TestSPSAIsDeterministicWhenSeeded(t *testing.T) {
	initial := []float64{0.9, -0.4}
	a, err := NewSPSAWithSeed(NewSPSASetting(), 7).
		Optimize(context.Background(), sphere, initial, 50, 0)
	require.Nil(t, err)
	b, err := NewSPSAWithSeed(NewSPSASetting(), 7).
		Optimize(context.Background(), sphere, initial, 50, 0)
	require.Nil(t, err)
	assert.Equal(t, a.OptimalValue, b.OptimalValue)
	assert.Equal(t, a.OptimalParameters, b.OptimalParameters)
	assert.Equal(t, a.ConvergenceHistory, b.ConvergenceHistory)
}

func TestSPSAOptimalValueNeverAboveInitialCost(t *testing.T) {
	// Holds for any seed, not just a lucky one.
	initial := []float64{2.0, 2.0}
	f0, _ := sphere(initial)
	for seed := int64(0); seed < 10; seed++ {
		result, err := NewSPSAWithSeed(NewSPSASetting(), seed).
			Optimize(context.Background(), sphere, initial, 30, 0)
		require.Nil(t, err)
		assert.LessOrEqual(t, result.OptimalValue, f0, "seed %d", seed)
	}
}

func TestSPSAProgressCalledEveryIteration(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 1)
	var iterations []int
	o.SetProgress(func(iteration int, cost float64, params []float64) {
		iterations = append(iterations, iteration)
		assert.Equal(t, 2, len(params))
	})
	result, err := o.Optimize(context.Background(), sphere, []float64{1, 1}, 25, 0)
	require.Nil(t, err)
	require.Equal(t, len(result.ConvergenceHistory), len(iterations))
	for i, it := range iterations {
		assert.Equal(t, i+1, it)
	}
}

func TestSPSACancellationReturnsBestSoFar(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 3)
	ctx, cancel := context.WithCancel(context.Background())
	evals := 0
	cost := func(params []float64) (float64, error) {
		evals++
		if evals >= 20 {
			cancel()
		}
		return sphere(params)
	}
	result, err := o.Optimize(ctx, cost, []float64{1, 1}, 1000, 0)
	require.Nil(t, err)
	assert.Less(t, len(result.ConvergenceHistory), 1000)
	f0, _ := sphere([]float64{1, 1})
	assert.LessOrEqual(t, result.OptimalValue, f0)
}

func TestSPSAConvergenceStopsEarly(t *testing.T) {
	// A constant cost converges as soon as the check window fills.
	o := NewSPSAWithSeed(NewSPSASetting(), 5)
	flat := func([]float64) (float64, error) { return 1.0, nil }
	result, err := o.Optimize(context.Background(), flat, []float64{1}, 1000, 1e-6)
	require.Nil(t, err)
	assert.Equal(t, NewSPSASetting().CheckWindow+1, len(result.ConvergenceHistory))
}

func TestSPSAPropagatesCostError(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 2)
	boom := errors.New("evaluation failed")
	evals := 0
	cost := func(params []float64) (float64, error) {
		evals++
		if evals > 3 {
			return 0, boom
		}
		return sphere(params)
	}
	_, err := o.Optimize(context.Background(), cost, []float64{1}, 100, 0)
	assert.ErrorIs(t, err, boom)
}

func TestSPSAAbortsOnNonFiniteCost(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 2)
	cost := func(params []float64) (float64, error) {
		if params[0] < 0.9 {
			return math.NaN(), nil
		}
		return sphere(params)
	}
	_, err := o.Optimize(context.Background(), cost, []float64{1}, 500, 0)
	assert.ErrorIs(t, err, core.ErrNonFiniteCostValue)
}

func TestSPSAValidatesInputs(t *testing.T) {
	o := NewSPSAWithSeed(NewSPSASetting(), 0)
	_, err := o.Optimize(context.Background(), sphere, nil, 10, 0)
	assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
	_, err = o.Optimize(context.Background(), sphere, []float64{1}, 0, 0)
	assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
}
