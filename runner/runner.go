package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/optimizer"
	"go.uber.org/zap"
)

type Status int

const (
	READY Status = iota
	RUNNING
	SUCCEEDED
	FAILED
)

func (s Status) String() string {
	switch s {
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

// Run is one queued optimization: an optimizer, a cost adapter and the
// termination settings. Result and Status are filled in by the runner.
type Run struct {
	ID                string
	Name              string
	Optimizer         optimizer.Optimizer
	Cost              optimizer.CostFunc
	InitialParameters []float64
	MaxIterations     int
	Tolerance         float64

	Status  Status
	Result  *core.OptimizationResult
	Message string
	Created strfmt.DateTime
	Ended   strfmt.DateTime
}

// Runner drains a FIFO of optimization runs sequentially. All computation
// stays synchronous; the queue only orders independent runs.
type Runner struct {
	queue fifo
}

func New() *Runner {
	return &Runner{queue: newConqFIFO()}
}

func (r *Runner) Submit(run *Run) error {
	if run.Optimizer == nil || run.Cost == nil {
		return fmt.Errorf("run needs an optimizer and a cost function")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Status = READY
	run.Created = strfmt.DateTime(time.Now())
	zap.L().Debug(fmt.Sprintf("Putting run %s (%s) to the queue", run.ID, run.Name))
	return r.queue.Enqueue(run)
}

func (r *Runner) QueueLen() int {
	return r.queue.GetLen()
}

// ProcessNext executes the oldest queued run. The run record is updated in
// place and also returned.
func (r *Runner) ProcessNext(ctx context.Context) (*Run, error) {
	run, err := r.queue.Dequeue()
	if err != nil {
		zap.L().Debug("no run in the queue", zap.Error(err))
		return nil, err
	}
	run.Status = RUNNING
	zap.L().Info(fmt.Sprintf("Starting run %s (%s) with %s",
		run.ID, run.Name, run.Optimizer.Name()))
	result, err := run.Optimizer.Optimize(ctx, run.Cost,
		run.InitialParameters, run.MaxIterations, run.Tolerance)
	run.Ended = strfmt.DateTime(time.Now())
	if err != nil {
		run.Status = FAILED
		run.Message = err.Error()
		zap.L().Error(fmt.Sprintf("run %s failed. Reason:%s", run.ID, err))
		return run, err
	}
	run.Status = SUCCEEDED
	run.Result = result
	zap.L().Info(fmt.Sprintf("run %s finished with value %g after %d iterations",
		run.ID, result.OptimalValue, len(result.ConvergenceHistory)))
	return run, nil
}

// ProcessAll drains the queue in order. The first failing run stops the
// drain and is returned with its error.
func (r *Runner) ProcessAll(ctx context.Context) ([]*Run, error) {
	done := make([]*Run, 0, r.queue.GetLen())
	for r.queue.GetLen() > 0 {
		run, err := r.ProcessNext(ctx)
		if run != nil {
			done = append(done, run)
		}
		if err != nil {
			return done, err
		}
	}
	return done, nil
}
