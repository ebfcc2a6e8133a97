package vqa

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/sim"
)

// Sample is one labeled training example for the supervised adapters.
// Features are angle-encoded, one per qubit.
type Sample struct {
	Features []float64 `json:"features"`
	Label    float64   `json:"label"`
}

type readoutMode int

const (
	// readoutFirstQubit predicts <Z_0>, the two-class readout of VQC.
	readoutFirstQubit readoutMode = iota
	// readoutMeanZ predicts the mean of <Z_q> over the register, the
	// regression readout of QNN.
	readoutMeanZ
)

// Supervised is the common VQC/QNN cost: encode a sample with RY(feature)
// rotations, run the default ansatz, read out an expectation value, and
// average the squared error against the labels.
type Supervised struct {
	engine    *sim.Engine
	numQubits int
	samples   []Sample
	readout   readoutMode
	name      string
}

// NewVQC builds a variational-classifier cost. Labels are expected in
// [-1, 1] to match the <Z_0> readout range, typically +-1 class tags.
func NewVQC(engine *sim.Engine, numQubits int, samples []Sample) (*Supervised, error) {
	return newSupervised(engine, numQubits, samples, readoutFirstQubit, "vqc")
}

// NewQNN builds a regression cost over the mean-Z readout.
func NewQNN(engine *sim.Engine, numQubits int, samples []Sample) (*Supervised, error) {
	return newSupervised(engine, numQubits, samples, readoutMeanZ, "qnn")
}

func newSupervised(engine *sim.Engine, numQubits int, samples []Sample, mode readoutMode, name string) (*Supervised, error) {
	if numQubits < 1 {
		return nil, errors.Wrapf(core.ErrMalformedParameterSet, "numQubits is %d", numQubits)
	}
	if len(samples) == 0 {
		return nil, errors.Wrap(core.ErrMalformedParameterSet, "no training samples")
	}
	for i, s := range samples {
		if len(s.Features) != numQubits {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"sample %d has %d features for %d qubits", i, len(s.Features), numQubits)
		}
		for _, f := range s.Features {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, errors.Wrapf(core.ErrMalformedParameterSet,
					"sample %d has a non-finite feature", i)
			}
		}
		if math.IsNaN(s.Label) || math.IsInf(s.Label, 0) {
			return nil, errors.Wrapf(core.ErrMalformedParameterSet,
				"sample %d has a non-finite label", i)
		}
	}
	return &Supervised{
		engine:    engine,
		numQubits: numQubits,
		samples:   samples,
		readout:   mode,
		name:      name,
	}, nil
}

func (s *Supervised) Name() string {
	return s.name
}

// Cost is the mean squared error of the circuit readout over the sample set.
func (s *Supervised) Cost(params []float64) (float64, error) {
	ansatz, err := hardwareEfficientAnsatz(s.numQubits, params)
	if err != nil {
		return 0, err
	}
	acc := 0.0
	for _, sample := range s.samples {
		gates := make([]core.Gate, 0, s.numQubits+len(ansatz))
		for q, f := range sample.Features {
			gates = append(gates, core.Gate{
				Name: "RY", Qubits: []int{q},
				Parameters: map[string]float64{"theta": f},
			})
		}
		gates = append(gates, ansatz...)
		state, err := s.engine.RunCircuit(core.CircuitDescriptor{
			NumQubits: s.numQubits, Gates: gates,
		})
		if err != nil {
			return 0, err
		}
		pred := s.predict(state)
		diff := pred - sample.Label
		acc += diff * diff
	}
	loss := acc / float64(len(s.samples))
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, errors.Wrapf(core.ErrNonFiniteCostValue, "%s loss", s.name)
	}
	return loss, nil
}

func (s *Supervised) predict(state core.StateVector) float64 {
	switch s.readout {
	case readoutMeanZ:
		acc := 0.0
		for q := 0; q < s.numQubits; q++ {
			acc += zExpectation(state, s.numQubits, q)
		}
		return acc / float64(s.numQubits)
	default:
		return zExpectation(state, s.numQubits, 0)
	}
}
