package sim

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/gate"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Engine is the exact dense state-vector simulator. It holds no mutable
// state of its own; every call recomputes from caller-owned inputs, so
// independent instances and parallel callers need no locking.
type Engine struct {
	registry gate.Registry
}

func NewEngine(r gate.Registry) *Engine {
	return &Engine{registry: r}
}

func (e *Engine) Registry() gate.Registry {
	return e.registry
}

// Initialize builds the tensor product of the supplied kets, in order. Each
// ket is a normalized single- or multi-qubit amplitude vector, already
// parsed by the external notation layer. A ket whose squared norm deviates
// beyond tolerance is a caller error; nothing is renormalized here.
func (e *Engine) Initialize(kets ...[]complex128) (core.StateVector, error) {
	if len(kets) == 0 {
		return nil, errors.Wrap(core.ErrNonNormalizedInputState, "no initial kets")
	}
	state := core.StateVector{1}
	for i, ket := range kets {
		if len(ket) < 2 || bits.OnesCount(uint(len(ket))) != 1 {
			return nil, errors.Wrapf(core.ErrNonNormalizedInputState,
				"ket %d has dimension %d", i, len(ket))
		}
		acc := 0.0
		for _, a := range ket {
			acc += real(a)*real(a) + imag(a)*imag(a)
		}
		if math.Abs(acc-1.0) > core.NormTolerance {
			return nil, errors.Wrapf(core.ErrNonNormalizedInputState,
				"ket %d has squared norm %g", i, acc)
		}
		next := make(core.StateVector, len(state)*len(ket))
		for j, a := range state {
			for l, b := range ket {
				next[j*len(ket)+l] = a * b
			}
		}
		state = next
	}
	return state, nil
}

// ZeroState is the |0...0> register of n qubits.
func (e *Engine) ZeroState(numQubits int) (core.StateVector, error) {
	if numQubits < 1 {
		return nil, errors.Wrapf(core.ErrInvalidQubitIndex, "numQubits is %d", numQubits)
	}
	state := make(core.StateVector, 1<<numQubits)
	state[0] = 1
	return state, nil
}

// ApplyGate embeds the gate's 2^k matrix into the 2^n space by index
// placement over the declared target qubits. Roles are positional: the
// first listed qubit maps to the most significant local bit. Returns a
// fresh vector; the input is never mutated. O(2^n * 4^k) in the dense form.
func (e *Engine) ApplyGate(state core.StateVector, g core.Gate) (core.StateVector, error) {
	n, err := state.NumQubits()
	if err != nil {
		return nil, err
	}
	kind, m, err := e.registry.Resolve(g)
	if err != nil {
		zap.L().Debug(fmt.Sprintf("failed to resolve gate %s: %s", g.Name, err))
		return nil, err
	}
	seen := map[int]struct{}{}
	for _, q := range g.Qubits {
		if q < 0 || q >= n {
			return nil, errors.Wrapf(core.ErrInvalidQubitIndex,
				"gate %s targets qubit %d of %d", kind, q, n)
		}
		if _, ok := seen[q]; ok {
			return nil, errors.Wrapf(core.ErrInvalidQubitIndex,
				"gate %s repeats qubit %d", kind, q)
		}
		seen[q] = struct{}{}
	}
	return applyMatrix(state, m, g.Qubits, n), nil
}

// RunCircuit applies every gate of the descriptor in declaration order to
// the |0...0> register unless initial kets are supplied.
func (e *Engine) RunCircuit(circ core.CircuitDescriptor, kets ...[]complex128) (core.StateVector, error) {
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	var state core.StateVector
	var err error
	if len(kets) == 0 {
		state, err = e.ZeroState(circ.NumQubits)
	} else {
		state, err = e.Initialize(kets...)
	}
	if err != nil {
		return nil, err
	}
	if len(state) != 1<<circ.NumQubits {
		return nil, errors.Wrapf(core.ErrNonNormalizedInputState,
			"initial state has dimension %d, circuit declares %d qubits", len(state), circ.NumQubits)
	}
	for i, g := range circ.Gates {
		state, err = e.ApplyGate(state, g)
		if err != nil {
			return nil, errors.Wrapf(err, "gate %d (%s)", i, g.Name)
		}
	}
	return state, nil
}

// applyMatrix places the k-qubit unitary u on the given targets. For each
// basis index the target bits form the local row; the amplitude is the sum
// over local columns of u[row,col] times the amplitude at the index whose
// target bits are replaced by col.
func applyMatrix(state core.StateVector, u *mat.CDense, targets []int, n int) core.StateVector {
	k := len(targets)
	dim := 1 << k
	// Global bit position of each target; first target is the most
	// significant local bit.
	shifts := make([]int, k)
	for j, q := range targets {
		shifts[j] = n - 1 - q
	}
	clearMask := 0
	for _, sh := range shifts {
		clearMask |= 1 << sh
	}
	clearMask = ^clearMask

	out := make(core.StateVector, len(state))
	for i := range state {
		row := 0
		for j, sh := range shifts {
			row |= ((i >> sh) & 1) << (k - 1 - j)
		}
		base := i & clearMask
		var acc complex128
		for col := 0; col < dim; col++ {
			entry := u.At(row, col)
			if entry == 0 {
				continue
			}
			src := base
			for j, sh := range shifts {
				src |= ((col >> (k - 1 - j)) & 1) << sh
			}
			acc += entry * state[src]
		}
		out[i] = acc
	}
	return out
}
