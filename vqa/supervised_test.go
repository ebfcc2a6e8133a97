//go:build unit
// +build unit

package vqa

import (
	"math"
	"testing"

	"github.com/qublab-team/qublab-engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupervisedValidation(t *testing.T) {
	e := newTestSim()
	tests := []struct {
		name      string
		numQubits int
		samples   []Sample
	}{
		{name: "no qubits", numQubits: 0, samples: []Sample{{Features: nil, Label: 1}}},
		{name: "no samples", numQubits: 1, samples: nil},
		{
			name:      "feature count mismatch",
			numQubits: 2,
			samples:   []Sample{{Features: []float64{0.1}, Label: 1}},
		},
		{
			name:      "non-finite feature",
			numQubits: 1,
			samples:   []Sample{{Features: []float64{math.NaN()}, Label: 1}},
		},
		{
			name:      "non-finite label",
			numQubits: 1,
			samples:   []Sample{{Features: []float64{0.1}, Label: math.Inf(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVQC(e, tt.numQubits, tt.samples)
			assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
			_, err = NewQNN(e, tt.numQubits, tt.samples)
			assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
		})
	}
}

func TestVQCCostPerfectFit(t *testing.T) {
	// On one qubit the prediction is <Z> = cos(feature + p0), so labels
	// generated by that model are fit exactly at the generating angle.
	theta := 0.7
	samples := []Sample{
		{Features: []float64{0.0}, Label: math.Cos(theta)},
		{Features: []float64{1.1}, Label: math.Cos(1.1 + theta)},
		{Features: []float64{-0.4}, Label: math.Cos(-0.4 + theta)},
	}
	c, err := NewVQC(newTestSim(), 1, samples)
	require.Nil(t, err)
	assert.Equal(t, "vqc", c.Name())

	loss, err := c.Cost([]float64{theta, 0})
	require.Nil(t, err)
	assert.InDelta(t, 0, loss, 1e-12)

	// Away from the generating angle the loss is strictly positive.
	loss, err = c.Cost([]float64{theta + 1.0, 0})
	require.Nil(t, err)
	assert.Greater(t, loss, 0.01)
}

func TestVQCCostIsMeanSquaredError(t *testing.T) {
	// A single sample with identity angles predicts cos(0)=1; label -1
	// gives squared error 4.
	samples := []Sample{{Features: []float64{0}, Label: -1}}
	c, err := NewVQC(newTestSim(), 1, samples)
	require.Nil(t, err)
	loss, err := c.Cost([]float64{0, 0})
	require.Nil(t, err)
	assert.InDelta(t, 4, loss, 1e-12)
}

func TestQNNCostMeanReadout(t *testing.T) {
	// Zero feature on the control qubit keeps the CNOT ladder inert, so
	// with identity ansatz angles the readout is (<Z0>+<Z1>)/2 =
	// (1+cos(f1))/2.
	f1 := 1.2
	samples := []Sample{{Features: []float64{0, f1}, Label: (1 + math.Cos(f1)) / 2}}
	q, err := NewQNN(newTestSim(), 2, samples)
	require.Nil(t, err)
	assert.Equal(t, "qnn", q.Name())

	loss, err := q.Cost([]float64{0, 0, 0, 0})
	require.Nil(t, err)
	assert.InDelta(t, 0, loss, 1e-12)
}

func TestSupervisedCostRejectsBadParameterCount(t *testing.T) {
	samples := []Sample{{Features: []float64{0.3}, Label: 1}}
	c, err := NewVQC(newTestSim(), 1, samples)
	require.Nil(t, err)
	_, err = c.Cost([]float64{0.1})
	assert.ErrorIs(t, err, core.ErrMalformedParameterSet)
}
