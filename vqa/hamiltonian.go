package vqa

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/qublab-team/qublab-engine/core"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// PauliTerm is the operator record exchanged with the surrounding system:
// a space-separated product of single-qubit Pauli factors and a real
// coefficient, e.g. {"pauli":"X0 Z1","coeff":1.5}. An empty pauli string is
// the identity term.
type PauliTerm struct {
	Pauli string  `json:"pauli"`
	Coeff float64 `json:"coeff"`
}

type pauliFactor struct {
	axis  byte // 'X', 'Y' or 'Z'
	qubit int
}

type term struct {
	coeff   float64
	factors []pauliFactor
}

// Hamiltonian is a Hermitian operator as a sum of weighted Pauli strings.
// Expectation values are evaluated term-by-term against the state vector;
// the dense 2^n x 2^n matrix is never materialized.
type Hamiltonian struct {
	numQubits int
	terms     []term
}

func NewHamiltonian(numQubits int, pauliTerms []PauliTerm) (*Hamiltonian, error) {
	if numQubits < 1 {
		return nil, errors.Wrapf(core.ErrMalformedParameterSet, "numQubits is %d", numQubits)
	}
	h := &Hamiltonian{numQubits: numQubits}
	for i, pt := range pauliTerms {
		if math.IsNaN(pt.Coeff) || math.IsInf(pt.Coeff, 0) {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"term %d coefficient is not finite", i)
		}
		factors, err := parseFactors(pt.Pauli, numQubits)
		if err != nil {
			return nil, errors.Wrapf(err, "term %d", i)
		}
		h.terms = append(h.terms, term{coeff: pt.Coeff, factors: factors})
	}
	return h, nil
}

// ParseHamiltonian decodes the operator JSON shape
// [{"pauli":"X0 X1","coeff":1.5},...].
func ParseHamiltonian(jsonInput string, numQubits int) (*Hamiltonian, error) {
	var pauliTerms []PauliTerm
	if err := jsonIter.Unmarshal([]byte(jsonInput), &pauliTerms); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal operators from:%s/reason:%s",
			jsonInput, err))
		return nil, errors.Wrap(core.ErrMalformedParameterSet, err.Error())
	}
	return NewHamiltonian(numQubits, pauliTerms)
}

func parseFactors(pauli string, numQubits int) ([]pauliFactor, error) {
	factors := []pauliFactor{}
	seen := map[int]struct{}{}
	for _, tok := range strings.Fields(pauli) {
		axis := tok[0]
		if axis != 'X' && axis != 'Y' && axis != 'Z' && axis != 'I' {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"pauli factor %q has axis %q", tok, string(axis))
		}
		q, err := strconv.Atoi(tok[1:])
		if err != nil {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet, "pauli factor %q", tok)
		}
		if q < 0 || q >= numQubits {
			return nil, errors.Wrapf(core.ErrInvalidQubitIndex,
				"pauli factor %q targets qubit %d of %d", tok, q, numQubits)
		}
		if _, ok := seen[q]; ok {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"pauli factor %q repeats qubit %d", tok, q)
		}
		seen[q] = struct{}{}
		if axis == 'I' {
			continue
		}
		factors = append(factors, pauliFactor{axis: axis, qubit: q})
	}
	return factors, nil
}

func (h *Hamiltonian) NumQubits() int {
	return h.numQubits
}

// IsDiagonal reports whether every term is built from Z factors only, i.e.
// the operator is diagonal in the computational basis.
func (h *Hamiltonian) IsDiagonal() bool {
	for _, t := range h.terms {
		for _, f := range t.factors {
			if f.axis != 'Z' {
				return false
			}
		}
	}
	return true
}

// Diagonal returns the 2^n diagonal entries of a Z-only operator.
func (h *Hamiltonian) Diagonal() ([]float64, error) {
	if !h.IsDiagonal() {
		return nil, errors.Wrap(core.ErrMalformedParameterSet,
			"operator has transverse factors")
	}
	n := h.numQubits
	diag := make([]float64, 1<<n)
	for i := range diag {
		for _, t := range h.terms {
			sign := 1.0
			for _, f := range t.factors {
				if (i>>(n-1-f.qubit))&1 == 1 {
					sign = -sign
				}
			}
			diag[i] += sign * t.coeff
		}
	}
	return diag, nil
}

// Expectation evaluates Re(psi^dagger H psi).
func (h *Hamiltonian) Expectation(state core.StateVector) (float64, error) {
	n, err := state.NumQubits()
	if err != nil {
		return 0, err
	}
	if n != h.numQubits {
		return 0, errors.Wrapf(core.ErrMalformedParameterSet,
			"state has %d qubits, operator has %d", n, h.numQubits)
	}
	var acc complex128
	for _, t := range h.terms {
		phi := applyFactors(state, t.factors, n)
		var inner complex128
		for i, a := range state {
			inner += complex(real(a), -imag(a)) * phi[i]
		}
		acc += complex(t.coeff, 0) * inner
	}
	v := real(acc)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrap(core.ErrNonFiniteCostValue, "expectation value")
	}
	return v, nil
}

// applyFactors computes P|psi> for one Pauli string. X flips the qubit bit,
// Z flips the sign of |1> components, Y does both with an i phase.
func applyFactors(state core.StateVector, factors []pauliFactor, n int) core.StateVector {
	out := state.Clone()
	for _, f := range factors {
		sh := n - 1 - f.qubit
		mask := 1 << sh
		next := make(core.StateVector, len(out))
		switch f.axis {
		case 'X':
			for i := range out {
				next[i] = out[i^mask]
			}
		case 'Y':
			for i := range out {
				if (i>>sh)&1 == 0 {
					next[i] = -1i * out[i^mask]
				} else {
					next[i] = 1i * out[i^mask]
				}
			}
		case 'Z':
			for i := range out {
				if (i>>sh)&1 == 1 {
					next[i] = -out[i]
				} else {
					next[i] = out[i]
				}
			}
		}
		out = next
	}
	return out
}
