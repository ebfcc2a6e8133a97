package trace

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/sim"
	"go.uber.org/zap"
)

// Tracer drives the engine gate-by-gate to produce reviewable snapshots for
// the step view. Every snapshot is a pure function of the cumulative state,
// so any step can be recomputed from scratch for scrub/seek.
type Tracer struct {
	engine *sim.Engine
}

func New(e *sim.Engine) *Tracer {
	return &Tracer{engine: e}
}

// StepThrough returns exactly len(gates)+1 StepResults in declaration
// order: the initial snapshot (empty gate name) followed by one snapshot
// per gate. The first failing gate aborts the whole trace; no partial
// snapshot sequence is returned.
func (t *Tracer) StepThrough(circ core.CircuitDescriptor, kets ...[]complex128) ([]core.StepResult, error) {
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	state, err := t.initialState(circ, kets)
	if err != nil {
		return nil, err
	}
	results := make([]core.StepResult, 0, len(circ.Gates)+1)
	snap, err := t.snapshot(state, "", nil)
	if err != nil {
		return nil, err
	}
	results = append(results, snap)
	for i, g := range circ.Gates {
		state, err = t.engine.ApplyGate(state, g)
		if err != nil {
			zap.L().Debug(fmt.Sprintf("trace aborted at step %d gate %s: %s", i+1, g.Name, err))
			return nil, errors.Wrapf(err, "step %d (%s)", i+1, g.Name)
		}
		snap, err = t.snapshot(state, g.Name, g.Qubits)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d (%s)", i+1, g.Name)
		}
		results = append(results, snap)
	}
	return results, nil
}

// StepAt recomputes the snapshot at the given step index (0 is the initial
// snapshot) from scratch. Supports seeking without incremental-state bugs.
func (t *Tracer) StepAt(circ core.CircuitDescriptor, index int, kets ...[]complex128) (core.StepResult, error) {
	if index < 0 || index > len(circ.Gates) {
		return core.StepResult{}, errors.Wrapf(core.ErrMalformedParameterSet,
			"step index %d of %d", index, len(circ.Gates)+1)
	}
	partial := circ.Clone()
	partial.Gates = partial.Gates[:index]
	steps, err := t.StepThrough(partial, kets...)
	if err != nil {
		return core.StepResult{}, err
	}
	return steps[len(steps)-1], nil
}

func (t *Tracer) initialState(circ core.CircuitDescriptor, kets [][]complex128) (core.StateVector, error) {
	if len(kets) == 0 {
		return t.engine.ZeroState(circ.NumQubits)
	}
	state, err := t.engine.Initialize(kets...)
	if err != nil {
		return nil, err
	}
	if len(state) != 1<<circ.NumQubits {
		return nil, errors.Wrapf(core.ErrNonNormalizedInputState,
			"initial state has dimension %d, circuit declares %d qubits", len(state), circ.NumQubits)
	}
	return state, nil
}

func (t *Tracer) snapshot(state core.StateVector, gateName string, qubits []int) (core.StepResult, error) {
	states, err := t.engine.ReducedStates(state)
	if err != nil {
		return core.StepResult{}, err
	}
	return core.StepResult{GateName: gateName, Qubits: qubits, States: states}, nil
}
