package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"go.uber.org/zap"
)

const ADAM_SETTING_KEY = "adam"

// AdamSetting holds the learning rate, moment decays and the central
// finite-difference step used to estimate gradients of the opaque cost.
type AdamSetting struct {
	LearningRate float64 `toml:"learning_rate"`
	Beta1        float64 `toml:"beta1"`
	Beta2        float64 `toml:"beta2"`
	Epsilon      float64 `toml:"epsilon"`
	FDStep       float64 `toml:"fd_step"`
	CheckWindow  int     `toml:"check_window"`
}

func NewAdamSetting() AdamSetting {
	return AdamSetting{
		LearningRate: 0.1,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		FDStep:       1e-4,
		CheckWindow:  5,
	}
}

func LoadAdamSetting() AdamSetting {
	setting := NewAdamSetting()
	s, ok := core.GetComponentSetting(ADAM_SETTING_KEY)
	if !ok {
		return setting
	}
	if typed, ok := s.(AdamSetting); ok {
		return typed
	}
	mapped, ok := s.(map[string]interface{})
	if !ok {
		zap.L().Debug("adam setting is not set")
		return setting
	}
	if v, ok := mapped["learning_rate"].(float64); ok {
		setting.LearningRate = v
	}
	if v, ok := mapped["beta1"].(float64); ok {
		setting.Beta1 = v
	}
	if v, ok := mapped["beta2"].(float64); ok {
		setting.Beta2 = v
	}
	if v, ok := mapped["epsilon"].(float64); ok {
		setting.Epsilon = v
	}
	if v, ok := mapped["fd_step"].(float64); ok {
		setting.FDStep = v
	}
	if v, ok := mapped["check_window"].(int64); ok {
		setting.CheckWindow = int(v)
	}
	return setting
}

// Adam applies bias-corrected adaptive moment updates over a central
// finite-difference gradient estimate. The cost function is opaque, so 2d
// probe evaluations per iteration estimate the gradient, plus one tracking
// evaluation at the current parameters for the convergence history.
type Adam struct {
	setting  AdamSetting
	progress ProgressFunc
}

func NewAdam(setting AdamSetting) *Adam {
	return &Adam{setting: setting}
}

func (o *Adam) SetProgress(fn ProgressFunc) {
	o.progress = fn
}

func (o *Adam) Name() string {
	return "adam"
}

func (o *Adam) Optimize(ctx context.Context, cost CostFunc, initial []float64,
	maxIterations int, tolerance float64) (*core.OptimizationResult, error) {
	start := time.Now()
	if err := validateStart(initial, maxIterations); err != nil {
		return nil, err
	}
	params := cloneVec(initial)
	dim := len(params)
	m := make([]float64, dim)
	v := make([]float64, dim)
	grad := make([]float64, dim)
	probe := make([]float64, dim)
	history := make([]float64, 0, maxIterations)

	f0, err := evaluate(cost, params)
	if err != nil {
		return nil, err
	}
	best := newBestPoint(params, f0)

	for k := 1; k <= maxIterations; k++ {
		if cancelled(ctx) {
			zap.L().Debug(fmt.Sprintf("adam cancelled before iteration %d", k))
			break
		}
		// Estimate the whole gradient before touching the moments, so a
		// failed evaluation aborts without corrupting the running averages.
		copy(probe, params)
		for i := 0; i < dim; i++ {
			probe[i] = params[i] + o.setting.FDStep
			fPlus, err := evaluate(cost, probe)
			if err != nil {
				return nil, err
			}
			probe[i] = params[i] - o.setting.FDStep
			fMinus, err := evaluate(cost, probe)
			if err != nil {
				return nil, err
			}
			probe[i] = params[i]
			grad[i] = (fPlus - fMinus) / (2 * o.setting.FDStep)
			best.consider(probeWith(params, i, o.setting.FDStep), fPlus)
			best.consider(probeWith(params, i, -o.setting.FDStep), fMinus)
		}
		b1k := 1 - math.Pow(o.setting.Beta1, float64(k))
		b2k := 1 - math.Pow(o.setting.Beta2, float64(k))
		for i := 0; i < dim; i++ {
			m[i] = o.setting.Beta1*m[i] + (1-o.setting.Beta1)*grad[i]
			v[i] = o.setting.Beta2*v[i] + (1-o.setting.Beta2)*grad[i]*grad[i]
			mHat := m[i] / b1k
			vHat := v[i] / b2k
			params[i] -= o.setting.LearningRate * mHat / (math.Sqrt(vHat) + o.setting.Epsilon)
		}
		if !finiteVec(params) {
			return nil, errors.Wrapf(core.ErrOptimizerDivergence,
				"parameters diverged at iteration %d", k)
		}
		f, err := evaluate(cost, params)
		if err != nil {
			return nil, err
		}
		best.consider(params, f)
		history = append(history, f)
		if o.progress != nil {
			o.progress(k, f, cloneVec(params))
		}
		if converged(history, o.setting.CheckWindow, tolerance) {
			zap.L().Debug(fmt.Sprintf("adam converged after %d iterations", k))
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

func probeWith(params []float64, i int, step float64) []float64 {
	p := cloneVec(params)
	p[i] += step
	return p
}
