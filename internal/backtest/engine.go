package backtest

import (
	"context"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/core"
)

// ProgressFunc receives coarse progress milestones in percent (0-100).
type ProgressFunc func(percent int, stage string)

// ResultSink persists completed results. Persistence failures must not
// fail the run that produced the result.
type ResultSink interface {
	Save(ctx context.Context, result *Result) error
}

// Recorder receives telemetry for finished operations. The metrics
// registry satisfies it; a nil recorder disables recording.
type Recorder interface {
	RecordBacktest(status string, duration float64, trades int)
	RecordOptimization(combinations int)
	RecordComparison()
}

// Engine is the top-level entry point for backtest operations. It
// resolves strategies, runs the simulator, scores results and hands
// them to the sink.
type Engine struct {
	repo       StrategyLookup
	simulator  *Simulator
	optimizer  *Optimizer
	comparator *Comparator
	bench      BenchmarkProvider
	sink       ResultSink
	recorder   Recorder
	logger     *zap.Logger
}

// SetRecorder attaches a telemetry recorder. Call before the engine is
// shared between goroutines.
func (e *Engine) SetRecorder(rec Recorder) {
	e.recorder = rec
}

// NewEngine wires an Engine from its collaborators. bench and sink may
// be nil.
func NewEngine(repo StrategyLookup, sim *Simulator, bench BenchmarkProvider, sink ResultSink, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		repo:       repo,
		simulator:  sim,
		optimizer:  NewOptimizer(sim, bench, l),
		comparator: NewComparator(sim, repo, bench, l),
		bench:      bench,
		sink:       sink,
		logger:     l,
	}
}

// RunBacktest executes one backtest end to end: resolve the strategy,
// simulate, compute metrics, persist. progress may be nil.
func (e *Engine) RunBacktest(ctx context.Context, req RunRequest, progress ProgressFunc) (*Result, error) {
	report := func(pct int, stage string) {
		if progress != nil {
			progress(pct, stage)
		}
	}
	report(0, "resolving strategy")

	strat, err := e.repo.Get(ctx, req.StrategyID)
	if err != nil {
		return nil, err
	}
	report(10, "strategy resolved")

	result, err := e.simulator.Run(ctx, strat, req)
	if err != nil {
		return nil, err
	}
	report(70, "simulation complete")

	if result.Status == StatusCompleted {
		var benchmark []float64
		if e.bench != nil && req.Benchmark != "" {
			benchmark, err = e.bench.Returns(ctx, req.Benchmark, req.Period)
			if err != nil {
				// Metrics degrade to the no-benchmark defaults.
				e.logger.Warn("benchmark load failed",
					zap.String("benchmark", req.Benchmark), zap.Error(err))
				benchmark = nil
			}
		}
		m := Analyze(result, benchmark, req.RiskFreeRate)
		result.Metrics = &m
	}
	report(90, "metrics complete")

	if e.recorder != nil {
		e.recorder.RecordBacktest(string(result.Status),
			result.ExecutionTime.Seconds(), result.TotalTrades)
	}
	e.persist(ctx, result)
	report(100, "done")
	return result, nil
}

// Optimize resolves the strategy and grid-searches its parameters.
func (e *Engine) Optimize(ctx context.Context, req OptimizeRequest, progress ProgressFunc) (*OptimizationResult, error) {
	report := func(pct int, stage string) {
		if progress != nil {
			progress(pct, stage)
		}
	}
	report(0, "resolving strategy")

	strat, err := e.repo.Get(ctx, req.StrategyID)
	if err != nil {
		return nil, err
	}
	report(10, "strategy resolved")

	out, err := e.optimizer.Optimize(ctx, strat, req)
	if err != nil {
		return nil, err
	}
	report(90, "grid search complete")

	if e.recorder != nil {
		e.recorder.RecordOptimization(out.TotalIterations)
	}
	e.persist(ctx, out.BestResult)
	report(100, "done")
	return out, nil
}

// Compare ranks the requested strategies over a shared period.
func (e *Engine) Compare(ctx context.Context, req CompareRequest, progress ProgressFunc) ([]ComparisonEntry, error) {
	report := func(pct int, stage string) {
		if progress != nil {
			progress(pct, stage)
		}
	}
	report(0, "starting comparison")

	if len(req.StrategyIDs) == 0 {
		return nil, core.WrapError(core.ErrValidation, nil)
	}

	entries, err := e.comparator.Compare(ctx, req)
	if err != nil {
		return nil, err
	}
	report(90, "comparison complete")

	if e.recorder != nil {
		e.recorder.RecordComparison()
	}
	for _, entry := range entries {
		e.persist(ctx, entry.Result)
	}
	report(100, "done")
	return entries, nil
}

// persist hands a result to the sink, logging failures instead of
// propagating them.
func (e *Engine) persist(ctx context.Context, result *Result) {
	if e.sink == nil || result == nil {
		return
	}
	if err := e.sink.Save(ctx, result); err != nil {
		e.logger.Warn("result persistence failed",
			zap.String("result", result.ID), zap.Error(err))
	}
}
