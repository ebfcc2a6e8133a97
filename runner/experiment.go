package runner

import (
	"fmt"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/qublab-team/qublab-engine/common"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/optimizer"
	"github.com/qublab-team/qublab-engine/sim"
	"github.com/qublab-team/qublab-engine/vqa"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// Experiment is the on-file description of one variational run, as written
// by the editor layer: the problem (operator terms or labeled samples), the
// adapter mode and the optimization settings.
type Experiment struct {
	Name              string          `json:"name"`
	Mode              string          `json:"mode"` // vqe, qaoa, vqc or qnn
	NumQubits         int             `json:"numQubits"`
	Hamiltonian       []vqa.PauliTerm `json:"hamiltonian,omitempty"`
	Samples           []vqa.Sample    `json:"samples,omitempty"`
	Optimizer         string          `json:"optimizer"`
	InitialParameters []float64       `json:"initialParameters"`
	MaxIterations     int             `json:"maxIterations"`
	Tolerance         float64         `json:"tolerance"`
}

func LoadExperiment(path string) (*Experiment, error) {
	content, err := common.ReadFile(path)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read experiment file/path:%s/reason:%s", path, err))
		return nil, err
	}
	var e Experiment
	if err := jsonIter.Unmarshal([]byte(content), &e); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal experiment from:%s/reason:%s", path, err))
		return nil, err
	}
	return &e, nil
}

// ToRun wires the experiment into a queued run against the given engine and
// optimizer.
func (e *Experiment) ToRun(engine *sim.Engine, opt optimizer.Optimizer) (*Run, error) {
	cost, err := e.costFunc(engine)
	if err != nil {
		return nil, err
	}
	return &Run{
		Name:              e.Name,
		Optimizer:         opt,
		Cost:              optimizer.CostFunc(cost),
		InitialParameters: e.InitialParameters,
		MaxIterations:     e.MaxIterations,
		Tolerance:         e.Tolerance,
	}, nil
}

func (e *Experiment) costFunc(engine *sim.Engine) (vqa.CostFunc, error) {
	switch e.Mode {
	case "vqe":
		ham, err := vqa.NewHamiltonian(e.NumQubits, e.Hamiltonian)
		if err != nil {
			return nil, err
		}
		return vqa.NewVQE(engine, ham).Cost, nil
	case "qaoa":
		ham, err := vqa.NewHamiltonian(e.NumQubits, e.Hamiltonian)
		if err != nil {
			return nil, err
		}
		q, err := vqa.NewQAOA(engine, ham)
		if err != nil {
			return nil, err
		}
		return q.Cost, nil
	case "vqc":
		s, err := vqa.NewVQC(engine, e.NumQubits, e.Samples)
		if err != nil {
			return nil, err
		}
		return s.Cost, nil
	case "qnn":
		s, err := vqa.NewQNN(engine, e.NumQubits, e.Samples)
		if err != nil {
			return nil, err
		}
		return s.Cost, nil
	default:
		return nil, errors.Wrapf(core.ErrMalformedParameterSet,
			"unknown experiment mode %q", e.Mode)
	}
}
