//go:build unit
// +build unit

package sim

import (
	"testing"

	"github.com/qublab-team/qublab-engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReducedStatesPauliFlip(t *testing.T) {
	// |0> -> X -> |1>: bloch (0,0,-1), pure, no superposition.
	e := newTestEngine()
	state, err := e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 1,
		Gates:     []core.Gate{{Name: "X", Qubits: []int{0}}},
	})
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)
	require.Equal(t, 1, len(reduced))

	d := reduced[0]
	assert.InDelta(t, 0, d.BlochVector.X, 1e-12)
	assert.InDelta(t, 0, d.BlochVector.Y, 1e-12)
	assert.InDelta(t, -1, d.BlochVector.Z, 1e-12)
	assert.InDelta(t, 1, d.Purity, 1e-12)
	assert.InDelta(t, 0, d.Superposition, 1e-12)
	assert.InDelta(t, 0, d.Entanglement, 1e-12)
	assert.InDelta(t, 1, d.Matrix[1][1].Re, 1e-12)
}

func TestReducedStatesHadamard(t *testing.T) {
	// |0> -> H -> |+>: bloch (1,0,0), full superposition, still pure.
	e := newTestEngine()
	state, err := e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 1,
		Gates:     []core.Gate{{Name: "H", Qubits: []int{0}}},
	})
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)

	d := reduced[0]
	assert.InDelta(t, 1, d.BlochVector.X, 1e-12)
	assert.InDelta(t, 0, d.BlochVector.Y, 1e-12)
	assert.InDelta(t, 0, d.BlochVector.Z, 1e-12)
	assert.InDelta(t, 1, d.Purity, 1e-12)
	assert.InDelta(t, 1, d.Superposition, 1e-12)
	assert.InDelta(t, 0, d.Entanglement, 1e-12)
}

func TestReducedStatesYAxis(t *testing.T) {
	e := newTestEngine()

	// |+i> sits on y=+1.
	state, err := e.Initialize(core.KetPlusI())
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)
	assert.InDelta(t, 1, reduced[0].BlochVector.Y, 1e-12)

	// RX(pi/2)|0> lands on y=-1 under the exp(-i*theta*X/2) convention.
	state, err = e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 1,
		Gates: []core.Gate{
			{Name: "RX", Qubits: []int{0}, Parameters: map[string]float64{"theta": 1.5707963267948966}},
		},
	})
	require.Nil(t, err)
	reduced, err = e.ReducedStates(state)
	require.Nil(t, err)
	assert.InDelta(t, -1, reduced[0].BlochVector.Y, 1e-12)
	assert.InDelta(t, 0, reduced[0].BlochVector.Z, 1e-12)
}

func TestReducedStatesBellPair(t *testing.T) {
	// Both halves of a Bell pair are maximally mixed: purity 1/2, zero
	// bloch vector, entanglement heuristic saturated at 1.
	e := newTestEngine()
	state, err := e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 2,
		Gates: []core.Gate{
			{Name: "H", Qubits: []int{0}},
			{Name: "CNOT", Qubits: []int{0, 1}},
		},
	})
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)
	require.Equal(t, 2, len(reduced))

	for q, d := range reduced {
		assert.InDelta(t, 0.5, d.Purity, 1e-12, "qubit %d", q)
		assert.InDelta(t, 0, d.BlochVector.Length(), 1e-12, "qubit %d", q)
		assert.InDelta(t, 1, d.Entanglement, 1e-12, "qubit %d", q)
		assert.InDelta(t, 0.5, d.Matrix[0][0].Re, 1e-12, "qubit %d", q)
		assert.InDelta(t, 0.5, d.Matrix[1][1].Re, 1e-12, "qubit %d", q)
		assert.InDelta(t, 0, d.Matrix[0][1].Re, 1e-12, "qubit %d", q)
	}
}

func TestReducedStatesProductState(t *testing.T) {
	// A product state keeps every qubit pure with a unit bloch vector.
	e := newTestEngine()
	state, err := e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 3,
		Gates: []core.Gate{
			{Name: "H", Qubits: []int{0}},
			{Name: "X", Qubits: []int{1}},
			{Name: "RY", Qubits: []int{2}, Parameters: map[string]float64{"theta": 0.9}},
		},
	})
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)
	require.Equal(t, 3, len(reduced))
	for q, d := range reduced {
		assert.InDelta(t, 1, d.Purity, 1e-12, "qubit %d", q)
		assert.InDelta(t, 1, d.BlochVector.Length(), 1e-12, "qubit %d", q)
		assert.InDelta(t, 0, d.Entanglement, 1e-12, "qubit %d", q)
	}
}

func TestReducedStatesTraceIsOne(t *testing.T) {
	e := newTestEngine()
	state, err := e.RunCircuit(core.CircuitDescriptor{
		NumQubits: 2,
		Gates: []core.Gate{
			{Name: "RY", Qubits: []int{0}, Parameters: map[string]float64{"theta": 1.234}},
			{Name: "CNOT", Qubits: []int{0, 1}},
			{Name: "S", Qubits: []int{1}},
		},
	})
	require.Nil(t, err)
	reduced, err := e.ReducedStates(state)
	require.Nil(t, err)
	for q, d := range reduced {
		assert.InDelta(t, 1, d.Matrix[0][0].Re+d.Matrix[1][1].Re, 1e-12, "qubit %d", q)
		// Hermiticity of the off-diagonal pair.
		assert.InDelta(t, d.Matrix[0][1].Re, d.Matrix[1][0].Re, 1e-12, "qubit %d", q)
		assert.InDelta(t, d.Matrix[0][1].Im, -d.Matrix[1][0].Im, 1e-12, "qubit %d", q)
	}
}

func TestReducedStatesRejectsBadNorm(t *testing.T) {
	e := newTestEngine()
	_, err := e.ReducedStates(core.StateVector{1, 1})
	assert.ErrorIs(t, err, core.ErrNonNormalizedInputState)
}
