package backtest

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/strategy"
)

// Metric names an optimization target.
type Metric string

const (
	MetricTotalReturn  Metric = "totalReturn"
	MetricSharpeRatio  Metric = "sharpeRatio"
	MetricWinRate      Metric = "winRate"
	MetricProfitFactor Metric = "profitFactor"
	MetricAlpha        Metric = "alpha"
	MetricMaxDrawdown  Metric = "maxDrawdown"
	MetricVolatility   Metric = "volatility"
)

// LowerIsBetter reports whether smaller values of the metric win.
func LowerIsBetter(m Metric) bool {
	switch m {
	case MetricMaxDrawdown, MetricVolatility:
		return true
	}
	return false
}

// ValidMetric reports whether m is a known optimization target.
func ValidMetric(m Metric) bool {
	switch m {
	case MetricTotalReturn, MetricSharpeRatio, MetricWinRate,
		MetricProfitFactor, MetricAlpha, MetricMaxDrawdown, MetricVolatility:
		return true
	}
	return false
}

// DefaultMaxIterations caps a grid search when the request does not.
const DefaultMaxIterations = 100

// Optimizer runs a bounded grid search over strategy parameters.
type Optimizer struct {
	simulator *Simulator
	bench     BenchmarkProvider
	logger    *zap.Logger
}

// BenchmarkProvider yields a benchmark-returns series for metric
// computation, or an empty series when no benchmark is configured.
type BenchmarkProvider interface {
	Returns(ctx context.Context, symbol string, period core.Period) ([]float64, error)
}

// NewOptimizer creates an Optimizer on top of a Simulator. bench may be
// nil when alpha-based targets are not needed.
func NewOptimizer(sim *Simulator, bench BenchmarkProvider, logger ...*zap.Logger) *Optimizer {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Optimizer{simulator: sim, bench: bench, logger: l}
}

// Optimize grid-searches the request's parameter ranges and returns the
// best combination by the requested metric. Individual combination
// failures are logged and skipped; the search fails only when every
// combination fails or the input is invalid.
func (o *Optimizer) Optimize(ctx context.Context, strat *strategy.Strategy, req OptimizeRequest) (*OptimizationResult, error) {
	if len(req.Ranges) == 0 {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("at least one parameter range is required"))
	}
	for _, r := range req.Ranges {
		if r.Step <= 0 {
			return nil, core.WrapError(core.ErrValidation,
				fmt.Errorf("range %q: step must be positive", r.Name))
		}
		if r.Min > r.Max {
			return nil, core.WrapError(core.ErrValidation,
				fmt.Errorf("range %q: min exceeds max", r.Name))
		}
	}
	metric := req.Metric
	if metric == "" {
		metric = MetricTotalReturn
	}
	if !ValidMetric(metric) {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("unknown optimization metric %q", metric))
	}
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	combos := gridCombinations(req.Ranges, maxIter)

	var benchmark []float64
	if o.bench != nil {
		var err error
		benchmark, err = o.bench.Returns(ctx, req.Symbol, req.Period)
		if err != nil {
			return nil, err
		}
	}

	out := &OptimizationResult{
		StrategyID: strat.ID,
		Metric:     metric,
	}

	for _, combo := range combos {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := o.simulator.Run(ctx, strat, RunRequest{
			StrategyID:     strat.ID,
			Symbol:         req.Symbol,
			Period:         req.Period,
			Parameters:     combo,
			InitialCapital: req.InitialCapital,
		})
		if err != nil {
			return nil, err
		}
		out.TotalIterations++
		if result.Status == StatusFailed {
			o.logger.Warn("combination failed",
				zap.String("strategy", strat.ID),
				zap.Any("parameters", combo),
				zap.String("error", result.Error),
			)
			continue
		}

		m := Analyze(result, benchmark, 0)
		result.Metrics = &m
		out.AllResults = append(out.AllResults, result)

		if out.BestResult == nil || betterThan(metric, result, out.BestResult) {
			out.BestResult = result
			out.BestParameters = combo
		}
	}

	if out.BestResult == nil {
		return nil, core.WrapError(core.ErrSimulation,
			fmt.Errorf("all %d parameter combinations failed", out.TotalIterations))
	}
	return out, nil
}

// gridCombinations enumerates the cartesian product of the ranges. Each
// axis yields at most ceil(maxIter^(1/n)) values so the product stays
// near maxIter; the result is then truncated to maxIter exactly. The
// first declared range varies slowest.
func gridCombinations(ranges []ParamRange, maxIter int) []map[string]any {
	stepCount := int(math.Ceil(math.Pow(float64(maxIter), 1/float64(len(ranges)))))
	if stepCount < 1 {
		stepCount = 1
	}

	axes := make([][]float64, len(ranges))
	for i, r := range ranges {
		var values []float64
		for v := r.Min; v <= r.Max && len(values) < stepCount; v += r.Step {
			values = append(values, v)
		}
		if len(values) == 0 {
			values = []float64{r.Min}
		}
		axes[i] = values
	}

	combos := []map[string]any{{}}
	for i, axis := range axes {
		next := make([]map[string]any, 0, len(combos)*len(axis))
		for _, base := range combos {
			for _, v := range axis {
				combo := make(map[string]any, len(base)+1)
				for k, bv := range base {
					combo[k] = bv
				}
				combo[ranges[i].Name] = v
				next = append(next, combo)
			}
		}
		combos = next
	}

	if len(combos) > maxIter {
		combos = combos[:maxIter]
	}
	return combos
}

// metricValue extracts the target metric from a scored result.
func metricValue(m Metric, r *Result) float64 {
	switch m {
	case MetricTotalReturn:
		return r.TotalReturn
	case MetricSharpeRatio:
		return r.SharpeRatio
	case MetricWinRate:
		return r.WinRate
	case MetricProfitFactor:
		return r.ProfitFactor
	case MetricAlpha:
		if r.Metrics != nil {
			return r.Metrics.Alpha
		}
		return 0
	case MetricMaxDrawdown:
		return r.MaxDrawdown
	case MetricVolatility:
		if r.Metrics != nil {
			return r.Metrics.Volatility
		}
		return 0
	}
	return 0
}

func betterThan(m Metric, candidate, incumbent *Result) bool {
	cv, iv := metricValue(m, candidate), metricValue(m, incumbent)
	if LowerIsBetter(m) {
		return cv < iv
	}
	return cv > iv
}
