package vqa

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/sim"
	"go.uber.org/zap"
)

// VQE wraps a Hermitian Hamiltonian into a variational cost: build the
// default hardware-efficient ansatz from the parameters, simulate it from
// |0...0>, and return Re(psi^dagger H psi).
type VQE struct {
	engine *sim.Engine
	ham    *Hamiltonian
}

func NewVQE(engine *sim.Engine, ham *Hamiltonian) *VQE {
	return &VQE{engine: engine, ham: ham}
}

func (v *VQE) Name() string {
	return "vqe"
}

func (v *VQE) Cost(params []float64) (float64, error) {
	n := v.ham.NumQubits()
	gates, err := hardwareEfficientAnsatz(n, params)
	if err != nil {
		return 0, err
	}
	state, err := v.engine.RunCircuit(core.CircuitDescriptor{NumQubits: n, Gates: gates})
	if err != nil {
		return 0, err
	}
	val, err := v.ham.Expectation(state)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		zap.L().Error(fmt.Sprintf("non-finite VQE cost for %d parameters", len(params)))
		return 0, errors.Wrap(core.ErrNonFiniteCostValue, "vqe cost")
	}
	return val, nil
}
