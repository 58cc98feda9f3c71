package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/core"
)

// Runner executes backtest operations as tracked jobs.
type Runner struct {
	store   *Store
	engine  *backtest.Engine
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a Runner. timeout bounds each job's execution; zero
// disables the bound.
func NewRunner(store *Store, engine *backtest.Engine, timeout time.Duration, logger ...*zap.Logger) *Runner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Runner{store: store, engine: engine, timeout: timeout, logger: l}
}

// SubmitBacktest queues one backtest run and returns the pending job.
func (r *Runner) SubmitBacktest(ctx context.Context, req backtest.RunRequest) *Job {
	j := r.store.Create(KindBacktest)
	go r.run(ctx, j.ID, func(ctx context.Context, progress backtest.ProgressFunc) (any, error) {
		return r.engine.RunBacktest(ctx, req, progress)
	})
	return j
}

// SubmitOptimize queues a grid search and returns the pending job.
func (r *Runner) SubmitOptimize(ctx context.Context, req backtest.OptimizeRequest) *Job {
	j := r.store.Create(KindOptimize)
	go r.run(ctx, j.ID, func(ctx context.Context, progress backtest.ProgressFunc) (any, error) {
		return r.engine.Optimize(ctx, req, progress)
	})
	return j
}

// SubmitCompare queues a strategy comparison and returns the pending job.
func (r *Runner) SubmitCompare(ctx context.Context, req backtest.CompareRequest) *Job {
	j := r.store.Create(KindCompare)
	go r.run(ctx, j.ID, func(ctx context.Context, progress backtest.ProgressFunc) (any, error) {
		return r.engine.Compare(ctx, req, progress)
	})
	return j
}

// run drives one job to a terminal state. The submitted context is
// detached from the originating request so an HTTP disconnect does not
// cancel the work.
func (r *Runner) run(parent context.Context, id string, fn func(context.Context, backtest.ProgressFunc) (any, error)) {
	ctx := context.WithoutCancel(parent)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.store.Update(id, func(j *Job) {
		j.Status = StatusRunning
	})

	progress := func(pct int, stage string) {
		r.store.Update(id, func(j *Job) {
			j.Progress = pct
			j.Stage = stage
		})
	}

	result, err := fn(ctx, progress)
	if err != nil {
		r.logger.Warn("job failed", zap.String("job", id), zap.Error(err))
		r.store.Update(id, func(j *Job) {
			j.Status = StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	r.store.Update(id, func(j *Job) {
		j.Status = StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

func asCoreError(err error) *core.Error {
	if ce, ok := err.(*core.Error); ok {
		return ce
	}
	return core.WrapError(core.ErrSimulation, err)
}
