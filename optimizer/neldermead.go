package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/qublab-team/qublab-engine/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

const NELDERMEAD_SETTING_KEY = "neldermead"

// NelderMeadSetting holds the simplex move coefficients and the spread of
// the initial simplex around the starting point.
type NelderMeadSetting struct {
	Reflection  float64 `toml:"reflection"`
	Expansion   float64 `toml:"expansion"`
	Contraction float64 `toml:"contraction"`
	Shrink      float64 `toml:"shrink"`
	InitialStep float64 `toml:"initial_step"`
	CheckWindow int     `toml:"check_window"`
}

func NewNelderMeadSetting() NelderMeadSetting {
	return NelderMeadSetting{
		Reflection:  1.0,
		Expansion:   2.0,
		Contraction: 0.5,
		Shrink:      0.5,
		InitialStep: 0.5,
		CheckWindow: 5,
	}
}

func LoadNelderMeadSetting() NelderMeadSetting {
	setting := NewNelderMeadSetting()
	s, ok := core.GetComponentSetting(NELDERMEAD_SETTING_KEY)
	if !ok {
		return setting
	}
	if typed, ok := s.(NelderMeadSetting); ok {
		return typed
	}
	mapped, ok := s.(map[string]interface{})
	if !ok {
		zap.L().Debug("neldermead setting is not set")
		return setting
	}
	if v, ok := mapped["reflection"].(float64); ok {
		setting.Reflection = v
	}
	if v, ok := mapped["expansion"].(float64); ok {
		setting.Expansion = v
	}
	if v, ok := mapped["contraction"].(float64); ok {
		setting.Contraction = v
	}
	if v, ok := mapped["shrink"].(float64); ok {
		setting.Shrink = v
	}
	if v, ok := mapped["initial_step"].(float64); ok {
		setting.InitialStep = v
	}
	if v, ok := mapped["check_window"].(int64); ok {
		setting.CheckWindow = int(v)
	}
	return setting
}

// NelderMead is an unconstrained derivative-free simplex search with the
// classic reflect/expand/contract/shrink moves. It stands in for the
// original system's "COBYLA" optimizer without genuine linear-constraint
// handling.
type NelderMead struct {
	setting  NelderMeadSetting
	progress ProgressFunc
}

func NewNelderMead(setting NelderMeadSetting) *NelderMead {
	return &NelderMead{setting: setting}
}

func (o *NelderMead) SetProgress(fn ProgressFunc) {
	o.progress = fn
}

func (o *NelderMead) Name() string {
	return "neldermead"
}

type vertex struct {
	params []float64
	value  float64
}

func (o *NelderMead) Optimize(ctx context.Context, cost CostFunc, initial []float64,
	maxIterations int, tolerance float64) (*core.OptimizationResult, error) {
	start := time.Now()
	if err := validateStart(initial, maxIterations); err != nil {
		return nil, err
	}
	dim := len(initial)
	simplex := make([]vertex, dim+1)
	for i := range simplex {
		p := cloneVec(initial)
		if i > 0 {
			p[i-1] += o.setting.InitialStep
		}
		f, err := evaluate(cost, p)
		if err != nil {
			return nil, err
		}
		simplex[i] = vertex{params: p, value: f}
	}
	best := newBestPoint(simplex[0].params, simplex[0].value)
	for _, vx := range simplex[1:] {
		best.consider(vx.params, vx.value)
	}
	history := make([]float64, 0, maxIterations)

	for k := 1; k <= maxIterations; k++ {
		if cancelled(ctx) {
			zap.L().Debug(fmt.Sprintf("neldermead cancelled before iteration %d", k))
			break
		}
		sort.Slice(simplex, func(i, j int) bool { return simplex[i].value < simplex[j].value })
		low, high := simplex[0], simplex[dim]

		centroid := make([]float64, dim)
		for _, vx := range simplex[:dim] {
			floats.Add(centroid, vx.params)
		}
		floats.Scale(1/float64(dim), centroid)

		reflected, err := o.move(cost, centroid, high.params, -o.setting.Reflection, best)
		if err != nil {
			return nil, err
		}
		switch {
		case reflected.value < low.value:
			expanded, err := o.move(cost, centroid, high.params, -o.setting.Expansion, best)
			if err != nil {
				return nil, err
			}
			if expanded.value < reflected.value {
				simplex[dim] = expanded
			} else {
				simplex[dim] = reflected
			}
		case reflected.value < simplex[dim-1].value:
			simplex[dim] = reflected
		default:
			contracted, err := o.move(cost, centroid, high.params, o.setting.Contraction, best)
			if err != nil {
				return nil, err
			}
			if contracted.value < high.value {
				simplex[dim] = contracted
			} else {
				// Shrink everything toward the current best vertex.
				for i := 1; i <= dim; i++ {
					p := cloneVec(low.params)
					floats.AddScaled(p, o.setting.Shrink, subVec(simplex[i].params, low.params))
					f, err := evaluate(cost, p)
					if err != nil {
						return nil, err
					}
					best.consider(p, f)
					simplex[i] = vertex{params: p, value: f}
				}
			}
		}

		lowest := simplex[0].value
		spread := 0.0
		for _, vx := range simplex {
			if vx.value < lowest {
				lowest = vx.value
			}
			if d := math.Abs(vx.value - simplex[0].value); d > spread {
				spread = d
			}
		}
		history = append(history, lowest)
		if o.progress != nil {
			o.progress(k, lowest, cloneVec(best.params))
		}
		if spread < tolerance || converged(history, o.setting.CheckWindow, tolerance) {
			zap.L().Debug(fmt.Sprintf("neldermead converged after %d iterations", k))
			break
		}
	}
	return &core.OptimizationResult{
		OptimalParameters:  best.params,
		OptimalValue:       best.value,
		ConvergenceHistory: history,
		ExecutionTime:      time.Since(start),
		OptimizerUsed:      o.Name(),
	}, nil
}

// move evaluates centroid + coeff*(worst - centroid): coeff -1 reflects,
// -expansion expands, +contraction contracts toward the worst vertex.
func (o *NelderMead) move(cost CostFunc, centroid, worst []float64, coeff float64, best *bestPoint) (vertex, error) {
	p := cloneVec(centroid)
	floats.AddScaled(p, coeff, subVec(worst, centroid))
	f, err := evaluate(cost, p)
	if err != nil {
		return vertex{}, err
	}
	best.consider(p, f)
	return vertex{params: p, value: f}, nil
}

func subVec(a, b []float64) []float64 {
	c := cloneVec(a)
	floats.Sub(c, b)
	return c
}
