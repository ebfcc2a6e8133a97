package vqa

import (
	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
)

// CostFunc is the common adapter contract: a pure, deterministic scalar
// cost of a parameter vector. A non-finite evaluation is a fatal
// core.ErrNonFiniteCostValue, never a silent penalty.
type CostFunc func(params []float64) (float64, error)

// hardwareEfficientAnsatz is the pinned default ansatz for VQE and the
// supervised adapters: per layer, RY(theta) then RZ(theta) on every qubit
// followed by a CNOT ladder q->q+1. Parameters are consumed in that order,
// so the layer count is len(params)/(2*numQubits).
func hardwareEfficientAnsatz(numQubits int, params []float64) ([]core.Gate, error) {
	perLayer := 2 * numQubits
	if len(params) == 0 || len(params)%perLayer != 0 {
		return nil, errors.Wrapf(core.ErrMalformedParameterSet,
			"ansatz on %d qubits takes a multiple of %d parameters, got %d",
			numQubits, perLayer, len(params))
	}
	layers := len(params) / perLayer
	gates := make([]core.Gate, 0, layers*(perLayer+numQubits-1))
	p := 0
	for l := 0; l < layers; l++ {
		for q := 0; q < numQubits; q++ {
			gates = append(gates, core.Gate{
				Name: "RY", Qubits: []int{q},
				Parameters: map[string]float64{"theta": params[p]},
			})
			p++
		}
		for q := 0; q < numQubits; q++ {
			gates = append(gates, core.Gate{
				Name: "RZ", Qubits: []int{q},
				Parameters: map[string]float64{"theta": params[p]},
			})
			p++
		}
		for q := 0; q < numQubits-1; q++ {
			gates = append(gates, core.Gate{Name: "CNOT", Qubits: []int{q, q + 1}})
		}
	}
	return gates, nil
}

// zExpectation is <Z_q> of the register: +|a|^2 for basis states with the
// qubit at 0, -|a|^2 otherwise.
func zExpectation(state core.StateVector, n, q int) float64 {
	sh := n - 1 - q
	acc := 0.0
	for i, a := range state {
		p := real(a)*real(a) + imag(a)*imag(a)
		if (i>>sh)&1 == 1 {
			acc -= p
		} else {
			acc += p
		}
	}
	return acc
}
