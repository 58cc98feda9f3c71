package backtest

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/strategy"
)

// compareBatchSize bounds how many strategies run concurrently during a
// comparison.
const compareBatchSize = 3

// StrategyLookup resolves a strategy ID for simulation. Satisfied by
// strategy.Repository.
type StrategyLookup interface {
	Get(ctx context.Context, id string) (*strategy.Strategy, error)
}

// Comparator runs several strategies over the same symbol and period and
// ranks the results.
type Comparator struct {
	simulator *Simulator
	lookup    StrategyLookup
	bench     BenchmarkProvider
	logger    *zap.Logger
}

// NewComparator creates a Comparator. bench may be nil.
func NewComparator(sim *Simulator, lookup StrategyLookup, bench BenchmarkProvider, logger ...*zap.Logger) *Comparator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Comparator{simulator: sim, lookup: lookup, bench: bench, logger: l}
}

// Compare backtests each strategy in batches of three and returns the
// survivors ranked by total return, best first. Strategies that cannot
// be resolved or whose run fails are logged and omitted; ties keep the
// request order.
func (c *Comparator) Compare(ctx context.Context, req CompareRequest) ([]ComparisonEntry, error) {
	var benchmark []float64
	if c.bench != nil && req.Benchmark != "" {
		var err error
		benchmark, err = c.bench.Returns(ctx, req.Benchmark, req.Period)
		if err != nil {
			return nil, err
		}
	}

	results := make([]*Result, len(req.StrategyIDs))
	for start := 0; start < len(req.StrategyIDs); start += compareBatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + compareBatchSize
		if end > len(req.StrategyIDs) {
			end = len(req.StrategyIDs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(slot int, id string) {
				defer wg.Done()
				results[slot] = c.runOne(ctx, id, req, benchmark)
			}(i, req.StrategyIDs[i])
		}
		wg.Wait()
	}

	entries := make([]ComparisonEntry, 0, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		entries = append(entries, ComparisonEntry{
			StrategyID: req.StrategyIDs[i],
			Result:     r,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Result.TotalReturn > entries[j].Result.TotalReturn
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// runOne backtests a single strategy, returning nil on any failure so
// the comparison keeps going.
func (c *Comparator) runOne(ctx context.Context, id string, req CompareRequest, benchmark []float64) *Result {
	strat, err := c.lookup.Get(ctx, id)
	if err != nil {
		c.logger.Warn("comparison skipping strategy",
			zap.String("strategy", id), zap.Error(err))
		return nil
	}

	result, err := c.simulator.Run(ctx, strat, RunRequest{
		StrategyID:     id,
		Symbol:         req.Symbol,
		Period:         req.Period,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		c.logger.Warn("comparison skipping strategy",
			zap.String("strategy", id), zap.Error(err))
		return nil
	}
	if result.Status == StatusFailed {
		c.logger.Warn("comparison skipping failed run",
			zap.String("strategy", id), zap.String("error", result.Error))
		return nil
	}

	m := Analyze(result, benchmark, 0)
	result.Metrics = &m
	return result
}
