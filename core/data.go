package core

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// StateVector is a dense register of 2^n amplitudes. Basis index bit order:
// qubit 0 is the most significant bit, so index = sum over q of
// bit(q) << (n-1-q), matching the reading order of ket labels |q0 q1 ...>.
// Engines replace the whole vector on every gate application; no partial
// in-place aliasing is visible to callers.
type StateVector []complex128

func (s StateVector) NumQubits() (int, error) {
	n := 0
	for d := len(s); d > 1; d >>= 1 {
		if d%2 != 0 {
			return 0, errors.Wrapf(ErrNonNormalizedInputState, "dimension %d is not a power of two", len(s))
		}
		n++
	}
	if len(s) < 2 {
		return 0, errors.Wrapf(ErrNonNormalizedInputState, "dimension %d is too small", len(s))
	}
	return n, nil
}

// SquaredNorm is the sum of |amplitude|^2 over the register.
func (s StateVector) SquaredNorm() float64 {
	acc := 0.0
	for _, a := range s {
		acc += real(a)*real(a) + imag(a)*imag(a)
	}
	return acc
}

// CheckNorm rejects vectors whose squared norm deviates from 1 beyond
// NormTolerance. Never renormalizes; a bad norm is a caller error.
func (s StateVector) CheckNorm() error {
	if n := s.SquaredNorm(); math.Abs(n-1.0) > NormTolerance {
		return errors.Wrapf(ErrNonNormalizedInputState, "squared norm is %g", n)
	}
	return nil
}

func (s StateVector) Clone() StateVector {
	c := make(StateVector, len(s))
	copy(c, s)
	return c
}

// ComplexAmplitude is the boundary shape of one amplitude or matrix entry.
type ComplexAmplitude struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func NewComplexAmplitude(c complex128) ComplexAmplitude {
	return ComplexAmplitude{Re: real(c), Im: imag(c)}
}

func (c ComplexAmplitude) Complex() complex128 {
	return complex(c.Re, c.Im)
}

// Gate is one entry of a circuit descriptor. Qubit order is positional: for
// controlled and otherwise asymmetric gates the role of each index is fixed
// by its position, e.g. [control, target] for CNOT.
type Gate struct {
	Name       string             `json:"name"`
	Qubits     []int              `json:"qubits"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// CircuitDescriptor is the record exchanged with the editor layer. Gates run
// in declaration order.
type CircuitDescriptor struct {
	NumQubits int    `json:"numQubits"`
	Gates     []Gate `json:"gates"`
}

func UnmarshalCircuitDescriptor(jsonInput string) (CircuitDescriptor, error) {
	var c CircuitDescriptor
	if err := jsonIter.Unmarshal([]byte(jsonInput), &c); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal circuit descriptor from:%s/reason:%s",
			jsonInput, err))
		return CircuitDescriptor{}, err
	}
	return c, nil
}

func (c CircuitDescriptor) Clone() CircuitDescriptor {
	return deepcopy.Copy(c).(CircuitDescriptor)
}

// Validate checks the structural shape of the descriptor: qubit count, index
// ranges and duplicate targets. Gate names and arities are validated by the
// gate registry at application time. All violations are aggregated.
func (c CircuitDescriptor) Validate() error {
	var merr error
	if c.NumQubits < 1 {
		merr = multierr.Append(merr,
			errors.Wrapf(ErrMalformedParameterSet, "numQubits is %d", c.NumQubits))
	}
	for i, g := range c.Gates {
		seen := map[int]struct{}{}
		for _, q := range g.Qubits {
			if q < 0 || q >= c.NumQubits {
				merr = multierr.Append(merr,
					errors.Wrapf(ErrInvalidQubitIndex, "gate %d (%s) targets qubit %d of %d", i, g.Name, q, c.NumQubits))
			}
			if _, ok := seen[q]; ok {
				merr = multierr.Append(merr,
					errors.Wrapf(ErrInvalidQubitIndex, "gate %d (%s) repeats qubit %d", i, g.Name, q))
			}
			seen[q] = struct{}{}
		}
	}
	return merr
}

func (c CircuitDescriptor) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.CircuitDescriptor")
		return ""
	}
	return string(pretty.Pretty(st))
}

// BlochVector is the 3D representation of a single-qubit density matrix.
type BlochVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (b BlochVector) Length() float64 {
	return math.Sqrt(b.X*b.X + b.Y*b.Y + b.Z*b.Z)
}

// DensityMatrix is the per-qubit reduced state record handed to the
// visualization layer. Superposition and Entanglement are display heuristics
// (transverse Bloch component and a rescaled mixedness), not formal measures.
type DensityMatrix struct {
	Matrix        [2][2]ComplexAmplitude `json:"matrix"`
	BlochVector   BlochVector            `json:"blochVector"`
	Purity        float64                `json:"purity"`
	Superposition float64                `json:"superposition"`
	Entanglement  float64                `json:"entanglement"`
}

// StepResult is one snapshot of the step tracer: the gate that produced it
// (empty name for the initial snapshot) and the reduced state of every qubit
// in the register at that point.
type StepResult struct {
	GateName string          `json:"gateName"`
	Qubits   []int           `json:"qubits"`
	States   []DensityMatrix `json:"states"`
}

// OptimizationResult is the authoritative outcome of one optimizer run.
// OptimalValue tracks the best evaluation seen anywhere in the run, so it is
// never above the cost at the initial parameters.
type OptimizationResult struct {
	OptimalParameters  []float64     `json:"optimalParameters"`
	OptimalValue       float64       `json:"optimalValue"`
	ConvergenceHistory []float64     `json:"convergenceHistory"`
	ExecutionTime      time.Duration `json:"executionTime"`
	OptimizerUsed      string        `json:"optimizerUsed"`
}

func (r *OptimizationResult) Clone() *OptimizationResult {
	return deepcopy.Copy(r).(*OptimizationResult)
}

func (r *OptimizationResult) String() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error("Failed to marshal core.OptimizationResult")
		return ""
	}
	return string(pretty.Pretty(st))
}

// Ket constructors for the engine-side values the external notation parser
// produces. All are normalized single-qubit kets.
func KetZero() []complex128  { return []complex128{1, 0} }
func KetOne() []complex128   { return []complex128{0, 1} }
func KetPlus() []complex128  { return []complex128{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)} }
func KetMinus() []complex128 { return []complex128{complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)} }
func KetPlusI() []complex128 { return []complex128{complex(1/math.Sqrt2, 0), complex(0, 1/math.Sqrt2)} }
func KetMinusI() []complex128 {
	return []complex128{complex(1/math.Sqrt2, 0), complex(0, -1/math.Sqrt2)}
}

// IsFinite reports whether the amplitude is free of NaN and Inf components.
func IsFinite(c complex128) bool {
	return !cmplx.IsNaN(c) && !cmplx.IsInf(c)
}
