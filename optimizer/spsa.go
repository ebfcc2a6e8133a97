package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/qublab-team/qublab-engine/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

const SPSA_SETTING_KEY = "spsa"

// SPSASetting holds the gain schedules a_k = a/(k+stability)^alpha and
// c_k = c/k^gamma. The default exponents are the usual 0.602/0.101 pair.
type SPSASetting struct {
	A           float64 `toml:"a"`
	C           float64 `toml:"c"`
	Stability   float64 `toml:"stability"`
	Alpha       float64 `toml:"alpha"`
	Gamma       float64 `toml:"gamma"`
	CheckWindow int     `toml:"check_window"`
}

func NewSPSASetting() SPSASetting {
	return SPSASetting{
		A:           0.2,
		C:           0.1,
		Stability:   10,
		Alpha:       0.602,
		Gamma:       0.101,
		CheckWindow: 5,
	}
}

// LoadSPSASetting merges the registered component setting over the
// defaults. Absent or mistyped fields keep their defaults.
func LoadSPSASetting() SPSASetting {
	setting := NewSPSASetting()
	s, ok := core.GetComponentSetting(SPSA_SETTING_KEY)
	if !ok {
		return setting
	}
	if typed, ok := s.(SPSASetting); ok {
		return typed
	}
	mapped, ok := s.(map[string]interface{})
	if !ok {
		zap.L().Debug("spsa setting is not set")
		return setting
	}
	if v, ok := mapped["a"].(float64); ok {
		setting.A = v
	}
	if v, ok := mapped["c"].(float64); ok {
		setting.C = v
	}
	if v, ok := mapped["stability"].(float64); ok {
		setting.Stability = v
	}
	if v, ok := mapped["alpha"].(float64); ok {
		setting.Alpha = v
	}
	if v, ok := mapped["gamma"].(float64); ok {
		setting.Gamma = v
	}
	if v, ok := mapped["check_window"].(int64); ok {
		setting.CheckWindow = int(v)
	}
	return setting
}

// SPSA is simultaneous-perturbation stochastic approximation: two cost
// probes per iteration along a random +-1 direction, independent of the
// parameter dimension. Not deterministic unless seeded.
type SPSA struct {
	setting  SPSASetting
	rng      *rand.Rand
	progress ProgressFunc
}

func NewSPSA(setting SPSASetting) *SPSA {
	return NewSPSAWithSeed(setting, time.Now().UnixNano())
}

func NewSPSAWithSeed(setting SPSASetting, seed int64) *SPSA {
	return &SPSA{setting: setting, rng: rand.New(rand.NewSource(seed))}
}

func (o *SPSA) SetProgress(fn ProgressFunc) {
	o.progress = fn
}

func (o *SPSA) Name() string {
	return "spsa"
}

func (o *SPSA) Optimize(ctx context.Context, cost CostFunc, initial []float64,
	maxIterations int, tolerance float64) (*core.OptimizationResult, error) {
	start := time.Now()
	if err := validateStart(initial, maxIterations); err != nil {
		return nil, err
	}
	f0, err := evaluate(cost, initial)
	if err != nil {
		return nil, err
	}
	best := newBestPoint(initial, f0)
	params := cloneVec(initial)
	dim := len(params)
	delta := make([]float64, dim)
	grad := make([]float64, dim)
	plus := make([]float64, dim)
	minus := make([]float64, dim)
	history := make([]float64, 0, maxIterations)

	for k := 1; k <= maxIterations; k++ {
		if cancelled(ctx) {
			zap.L().Debug(fmt.Sprintf("spsa cancelled before iteration %d", k))
			break
		}
		ak := o.setting.A / math.Pow(float64(k)+o.setting.Stability, o.setting.Alpha)
		ck := o.setting.C / math.Pow(float64(k), o.setting.Gamma)
		for i := range delta {
			if o.rng.Intn(2) == 0 {
				delta[i] = 1
			} else {
				delta[i] = -1
			}
		}
		copy(plus, params)
		floats.AddScaled(plus, ck, delta)
		fPlus, err := evaluate(cost, plus)
		if err != nil {
			return nil, err
		}
		copy(minus, params)
		floats.AddScaled(minus, -ck, delta)
		fMinus, err := evaluate(cost, minus)
		if err != nil {
			return nil, err
		}
		best.consider(plus, fPlus)
		best.consider(minus, fMinus)
		for i := range grad {
			grad[i] = (fPlus - fMinus) / (2 * ck * delta[i])
		}
		floats.AddScaled(params, -ak, grad)
		if !finiteVec(params) {
			return nil, errors.Wrapf(core.ErrOptimizerDivergence,
				"parameters diverged at iteration %d", k)
		}
		// The probe pair is all this iteration evaluated; record its floor.
		history = append(history, math.Min(fPlus, fMinus))
		if o.progress != nil {
			o.progress(k, history[len(history)-1], cloneVec(params))
		}
		if converged(history, o.setting.CheckWindow, tolerance) {
			zap.L().Debug(fmt.Sprintf("spsa converged after %d iterations", k))
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
