package gate

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"gonum.org/v1/gonum/mat"
)

// Kind is the closed vocabulary of gate kinds. Unrecognized names fail at
// lookup, not at first use.
type Kind int

const (
	I Kind = iota
	X
	Y
	Z
	H
	S
	T
	RX
	RY
	RZ
	CNOT
	CZ
	SWAP
	CY
	CH
	RXX
	RYY
	RZZ
	SQRTX
	SQRTY
	SQRTZ
	P
	CCNOT
	FREDKIN
)

func (k Kind) String() string {
	switch k {
	case I:
		return "I"
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	case H:
		return "H"
	case S:
		return "S"
	case T:
		return "T"
	case RX:
		return "RX"
	case RY:
		return "RY"
	case RZ:
		return "RZ"
	case CNOT:
		return "CNOT"
	case CZ:
		return "CZ"
	case SWAP:
		return "SWAP"
	case CY:
		return "CY"
	case CH:
		return "CH"
	case RXX:
		return "RXX"
	case RYY:
		return "RYY"
	case RZZ:
		return "RZZ"
	case SQRTX:
		return "SQRTX"
	case SQRTY:
		return "SQRTY"
	case SQRTZ:
		return "SQRTZ"
	case P:
		return "P"
	case CCNOT:
		return "CCNOT"
	case FREDKIN:
		return "FREDKIN"
	default:
		return "unknown"
	}
}

// matrixGen builds the 2^arity unitary of a gate kind from its named
// parameters. Fixed gates ignore the map.
type matrixGen func(params map[string]float64) *mat.CDense

type entry struct {
	arity      int
	paramNames []string
	gen        matrixGen
}

// Registry is an immutable table over the fixed gate vocabulary. It is
// constructed once and passed by value into the engine; there is no
// process-wide mutable matrix cache.
type Registry struct {
	entries map[Kind]entry
	byName  map[string]Kind
}

func NewRegistry() Registry {
	entries := map[Kind]entry{
		I:       {arity: 1, gen: fixed(matI)},
		X:       {arity: 1, gen: fixed(matX)},
		Y:       {arity: 1, gen: fixed(matY)},
		Z:       {arity: 1, gen: fixed(matZ)},
		H:       {arity: 1, gen: fixed(matH)},
		S:       {arity: 1, gen: fixed(matS)},
		T:       {arity: 1, gen: fixed(matT)},
		SQRTX:   {arity: 1, gen: fixed(matSqrtX)},
		SQRTY:   {arity: 1, gen: fixed(matSqrtY)},
		SQRTZ:   {arity: 1, gen: fixed(matS)}, // sqrt(Z) is the S gate
		RX:      {arity: 1, paramNames: []string{"theta"}, gen: withTheta(matRX)},
		RY:      {arity: 1, paramNames: []string{"theta"}, gen: withTheta(matRY)},
		RZ:      {arity: 1, paramNames: []string{"theta"}, gen: withTheta(matRZ)},
		P:       {arity: 1, paramNames: []string{"phi"}, gen: withParam("phi", matP)},
		CNOT:    {arity: 2, gen: fixed(matCNOT)},
		CZ:      {arity: 2, gen: fixed(matCZ)},
		SWAP:    {arity: 2, gen: fixed(matSWAP)},
		CY:      {arity: 2, gen: fixed(matCY)},
		CH:      {arity: 2, gen: fixed(matCH)},
		RXX:     {arity: 2, paramNames: []string{"theta"}, gen: withTheta(matRXX)},
		RYY:     {arity: 2, paramNames: []string{"theta"}, gen: withTheta(matRYY)},
		RZZ:     {arity: 2, paramNames: []string{"theta"}, gen: withTheta(matRZZ)},
		CCNOT:   {arity: 3, gen: fixed(matCCNOT)},
		FREDKIN: {arity: 3, gen: fixed(matFREDKIN)},
	}
	byName := make(map[string]Kind, len(entries))
	for k := range entries {
		byName[k.String()] = k
	}
	return Registry{entries: entries, byName: byName}
}

// Lookup resolves a gate name from the fixed vocabulary.
func (r Registry) Lookup(name string) (Kind, error) {
	k, ok := r.byName[name]
	if !ok {
		return 0, errors.Wrapf(core.ErrUnknownGateName, "%q", name)
	}
	return k, nil
}

// Arity returns the number of target qubits of the kind.
func (r Registry) Arity(k Kind) int {
	return r.entries[k].arity
}

// MatrixFor generates the 2^arity x 2^arity unitary of the kind. Missing or
// non-finite required parameters and extraneous parameter names are rejected.
func (r Registry) MatrixFor(k Kind, params map[string]float64) (*mat.CDense, error) {
	e, ok := r.entries[k]
	if !ok {
		return nil, errors.Wrapf(core.ErrUnknownGateName, "kind %d", int(k))
	}
	required := map[string]struct{}{}
	for _, name := range e.paramNames {
		v, ok := params[name]
		if !ok {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"gate %s requires parameter %q", k, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"gate %s parameter %q is not finite", k, name)
		}
		required[name] = struct{}{}
	}
	for name := range params {
		if _, ok := required[name]; !ok {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"gate %s does not take parameter %q", k, name)
		}
	}
	return e.gen(params), nil
}

// Resolve validates a descriptor gate against the vocabulary and produces
// its kind and matrix.
func (r Registry) Resolve(g core.Gate) (Kind, *mat.CDense, error) {
	k, err := r.Lookup(g.Name)
	if err != nil {
		return 0, nil, err
	}
	if len(g.Qubits) != r.Arity(k) {
		return 0, nil, errors.Wrapf(core.ErrMalformedParameterSet,
			"gate %s takes %d qubits, got %d", k, r.Arity(k), len(g.Qubits))
	}
	m, err := r.MatrixFor(k, g.Parameters)
	if err != nil {
		return 0, nil, err
	}
	return k, m, nil
}

func fixed(m func() *mat.CDense) matrixGen {
	return func(map[string]float64) *mat.CDense { return m() }
}

func withTheta(m func(theta float64) *mat.CDense) matrixGen {
	return withParam("theta", m)
}

func withParam(name string, m func(v float64) *mat.CDense) matrixGen {
	return func(params map[string]float64) *mat.CDense { return m(params[name]) }
}
