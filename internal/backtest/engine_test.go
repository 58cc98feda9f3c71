package backtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/data"
	"github.com/trendsim/trendsim/internal/strategy"
)

type captureSink struct {
	mu      sync.Mutex
	results []*Result
	err     error
}

func (s *captureSink) Save(ctx context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, result)
	return nil
}

func (s *captureSink) saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func engineFixture(t *testing.T, sink ResultSink) *Engine {
	t.Helper()
	src := data.NewMemorySource()
	closes := []float64{95, 96, 97, 100, 104, 106, 108, 110, 109, 108}
	momentum := []float64{60, 60, 60, 80, 75, 75, 75, 40, 60, 60}
	src.Put("TREND:AI", trendBars(closes, momentum))
	src.Put("BENCH", trendBars(closes, make([]float64, len(closes))))

	repo := strategy.NewRepository(strategy.NewMemoryStore(), nil)
	bench := &data.BenchmarkFromBars{Source: src}
	return NewEngine(repo, NewSimulator(src), bench, sink)
}

func TestEngine_RunBacktest(t *testing.T) {
	sink := &captureSink{}
	eng := engineFixture(t, sink)

	var stages []int
	result, err := eng.RunBacktest(context.Background(), RunRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
		Benchmark:  "BENCH",
	}, func(pct int, stage string) {
		stages = append(stages, pct)
	})
	if err != nil {
		t.Fatalf("RunBacktest() error = %v", err)
	}

	if result.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", result.Status)
	}
	if result.Metrics == nil {
		t.Fatal("completed runs must carry analyzer metrics")
	}
	if sink.saved() != 1 {
		t.Errorf("sink received %d results, want 1", sink.saved())
	}

	if len(stages) == 0 || stages[0] != 0 || stages[len(stages)-1] != 100 {
		t.Errorf("progress must run 0..100, got %v", stages)
	}
	for i := 1; i < len(stages); i++ {
		if stages[i] < stages[i-1] {
			t.Fatalf("progress must be monotonic, got %v", stages)
		}
	}
}

type captureRecorder struct {
	backtests     []string
	trades        int
	optimizations []int
	comparisons   int
}

func (r *captureRecorder) RecordBacktest(status string, duration float64, trades int) {
	r.backtests = append(r.backtests, status)
	r.trades += trades
}

func (r *captureRecorder) RecordOptimization(combinations int) {
	r.optimizations = append(r.optimizations, combinations)
}

func (r *captureRecorder) RecordComparison() {
	r.comparisons++
}

func TestEngine_RecordsTelemetry(t *testing.T) {
	eng := engineFixture(t, nil)
	rec := &captureRecorder{}
	eng.SetRecorder(rec)
	ctx := context.Background()

	if _, err := eng.RunBacktest(ctx, RunRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
	}, nil); err != nil {
		t.Fatalf("RunBacktest() error = %v", err)
	}
	if len(rec.backtests) != 1 || rec.backtests[0] != string(StatusCompleted) {
		t.Errorf("backtest statuses = %v, want one COMPLETED", rec.backtests)
	}
	if rec.trades == 0 {
		t.Error("expected simulated trades to be recorded")
	}

	out, err := eng.Optimize(ctx, OptimizeRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
		Ranges:     []ParamRange{{Name: "minViralityScore", Min: 65, Max: 85, Step: 10}},
		Metric:     MetricTotalReturn,
	}, nil)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if len(rec.optimizations) != 1 || rec.optimizations[0] != out.TotalIterations {
		t.Errorf("optimizations = %v, want [%d]", rec.optimizations, out.TotalIterations)
	}

	if _, err := eng.Compare(ctx, CompareRequest{
		StrategyIDs: []string{"trend_momentum", "sentiment_reversal"},
		Symbol:      "TREND:AI",
		Period:      testPeriod(10),
	}, nil); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if rec.comparisons != 1 {
		t.Errorf("comparisons = %d, want 1", rec.comparisons)
	}
}

func TestEngine_RunBacktest_UnknownStrategy(t *testing.T) {
	eng := engineFixture(t, nil)

	_, err := eng.RunBacktest(context.Background(), RunRequest{
		StrategyID: "nope",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
	}, nil)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEngine_RunBacktest_SinkFailureDoesNotFailRun(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	eng := engineFixture(t, sink)

	result, err := eng.RunBacktest(context.Background(), RunRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
	}, nil)
	if err != nil {
		t.Fatalf("sink failures must not fail the run, got %v", err)
	}
	if result.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", result.Status)
	}
}

func TestEngine_Optimize(t *testing.T) {
	sink := &captureSink{}
	eng := engineFixture(t, sink)

	out, err := eng.Optimize(context.Background(), OptimizeRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
		Ranges:     []ParamRange{{Name: "minViralityScore", Min: 65, Max: 85, Step: 10}},
		Metric:     MetricTotalReturn,
	}, nil)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if out.BestResult == nil {
		t.Fatal("expected a best result")
	}
	if sink.saved() != 1 {
		t.Errorf("sink received %d results, want the best result only", sink.saved())
	}
}

func TestEngine_Compare(t *testing.T) {
	sink := &captureSink{}
	eng := engineFixture(t, sink)

	entries, err := eng.Compare(context.Background(), CompareRequest{
		StrategyIDs: []string{"trend_momentum", "sentiment_reversal"},
		Symbol:      "TREND:AI",
		Period:      testPeriod(10),
	}, nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if sink.saved() != 2 {
		t.Errorf("sink received %d results, want 2", sink.saved())
	}
}

func TestEngine_Compare_EmptyRequest(t *testing.T) {
	eng := engineFixture(t, nil)

	_, err := eng.Compare(context.Background(), CompareRequest{
		Symbol: "TREND:AI",
		Period: testPeriod(10),
	}, nil)
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
