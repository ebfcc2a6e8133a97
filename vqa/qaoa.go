package vqa

import (
	"math/cmplx"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/sim"
)

// QAOA alternates a diagonal cost-phase layer exp(-i*gamma*H_C) with an
// RX(2*beta) transverse mixer, starting from the uniform |+>^n state.
// Parameters are one (gamma, beta) pair per layer in that order. The cost
// Hamiltonian must be diagonal (Z factors only), the standard form of a
// combinatorial cost operator; the phase layer is applied directly to the
// amplitudes instead of through a 2^n matrix.
type QAOA struct {
	engine *sim.Engine
	ham    *Hamiltonian
	diag   []float64
}

func NewQAOA(engine *sim.Engine, costHam *Hamiltonian) (*QAOA, error) {
	diag, err := costHam.Diagonal()
	if err != nil {
		return nil, errors.Wrap(err, "qaoa cost operator")
	}
	return &QAOA{engine: engine, ham: costHam, diag: diag}, nil
}

func (q *QAOA) Name() string {
	return "qaoa"
}

func (q *QAOA) Cost(params []float64) (float64, error) {
	if len(params) == 0 || len(params)%2 != 0 {
		return 0, errors.Wrapf(core.ErrMalformedParameterSet,
			"qaoa takes (gamma,beta) pairs, got %d parameters", len(params))
	}
	n := q.ham.NumQubits()
	kets := make([][]complex128, n)
	for i := range kets {
		kets[i] = core.KetPlus()
	}
	state, err := q.engine.Initialize(kets...)
	if err != nil {
		return 0, err
	}
	for l := 0; l < len(params); l += 2 {
		gamma, beta := params[l], params[l+1]
		next := state.Clone()
		for i := range next {
			next[i] *= cmplx.Exp(complex(0, -gamma*q.diag[i]))
		}
		state = next
		for qi := 0; qi < n; qi++ {
			state, err = q.engine.ApplyGate(state, core.Gate{
				Name: "RX", Qubits: []int{qi},
				Parameters: map[string]float64{"theta": 2 * beta},
			})
			if err != nil {
				return 0, err
			}
		}
	}
	// H_C is diagonal, so the expectation is a weighted probability sum.
	acc := 0.0
	for i, a := range state {
		acc += q.diag[i] * (real(a)*real(a) + imag(a)*imag(a))
	}
	if !core.IsFinite(complex(acc, 0)) {
		return 0, errors.Wrap(core.ErrNonFiniteCostValue, "qaoa cost")
	}
	return acc, nil
}
