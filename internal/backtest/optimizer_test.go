package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/data"
)

func TestGridCombinations_SingleAxis(t *testing.T) {
	ranges := []ParamRange{{Name: "minViralityScore", Min: 50, Max: 90, Step: 10}}
	combos := gridCombinations(ranges, 5)

	if len(combos) != 5 {
		t.Fatalf("expected 5 combinations, got %d", len(combos))
	}
	want := []float64{50, 60, 70, 80, 90}
	for i, combo := range combos {
		if combo["minViralityScore"] != want[i] {
			t.Errorf("combo[%d] = %v, want %v", i, combo["minViralityScore"], want[i])
		}
	}
}

func TestGridCombinations_StepBudgetPerAxis(t *testing.T) {
	// Two axes under maxIter 9: each axis gets ceil(9^(1/2)) = 3 values.
	ranges := []ParamRange{
		{Name: "a", Min: 0, Max: 100, Step: 1},
		{Name: "b", Min: 0, Max: 100, Step: 1},
	}
	combos := gridCombinations(ranges, 9)
	if len(combos) != 9 {
		t.Fatalf("expected 9 combinations, got %d", len(combos))
	}

	// First declared axis varies slowest.
	if combos[0]["a"] != 0.0 || combos[1]["a"] != 0.0 || combos[2]["a"] != 0.0 {
		t.Error("first axis must vary slowest")
	}
	if combos[0]["b"] != 0.0 || combos[1]["b"] != 1.0 || combos[2]["b"] != 2.0 {
		t.Error("last axis must vary fastest")
	}
}

func TestGridCombinations_TruncatedToMax(t *testing.T) {
	ranges := []ParamRange{{Name: "a", Min: 0, Max: 100, Step: 1}}
	combos := gridCombinations(ranges, 7)
	if len(combos) != 7 {
		t.Errorf("expected truncation to 7, got %d", len(combos))
	}
}

func TestGridCombinations_RangeShorterThanBudget(t *testing.T) {
	ranges := []ParamRange{{Name: "a", Min: 0, Max: 2, Step: 1}}
	combos := gridCombinations(ranges, 100)
	if len(combos) != 3 {
		t.Errorf("expected 3 combinations for a 3-value range, got %d", len(combos))
	}
}

func TestLowerIsBetter(t *testing.T) {
	if !LowerIsBetter(MetricMaxDrawdown) || !LowerIsBetter(MetricVolatility) {
		t.Error("drawdown and volatility minimize")
	}
	if LowerIsBetter(MetricTotalReturn) || LowerIsBetter(MetricSharpeRatio) {
		t.Error("return metrics maximize")
	}
}

func optimizerFixture(t *testing.T) (*Optimizer, *data.MemorySource) {
	t.Helper()
	src := data.NewMemorySource()
	closes := []float64{95, 96, 97, 100, 104, 106, 108, 110, 109, 108}
	momentum := []float64{60, 60, 60, 80, 75, 75, 75, 40, 60, 60}
	src.Put("TREND:AI", trendBars(closes, momentum))
	return NewOptimizer(NewSimulator(src), nil), src
}

func TestOptimizer_Optimize(t *testing.T) {
	opt, _ := optimizerFixture(t)

	// Thresholds 65 and 75 trade (entry bar 3, +10%); 85 and 95 never
	// enter. Total return is maximized by the trading thresholds.
	out, err := opt.Optimize(context.Background(), trendStrategy(t), OptimizeRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
		Ranges:     []ParamRange{{Name: "minViralityScore", Min: 65, Max: 95, Step: 10}},
		Metric:     MetricTotalReturn,
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if out.TotalIterations != 4 {
		t.Errorf("iterations = %d, want 4", out.TotalIterations)
	}
	if len(out.AllResults) != 4 {
		t.Errorf("results = %d, want 4", len(out.AllResults))
	}
	best := out.BestParameters["minViralityScore"]
	if best != 65.0 {
		t.Errorf("best threshold = %v, want 65 (first maximizing combination)", best)
	}
	if !almostEqual(out.BestResult.TotalReturn, 0.1) {
		t.Errorf("best return = %v, want 0.1", out.BestResult.TotalReturn)
	}
	if out.BestResult.Metrics == nil {
		t.Error("scored results must carry analyzer metrics")
	}
}

func TestOptimizer_Optimize_LowerIsBetterMetric(t *testing.T) {
	opt, _ := optimizerFixture(t)

	// Non-trading thresholds have zero drawdown and win under a
	// minimizing metric.
	out, err := opt.Optimize(context.Background(), trendStrategy(t), OptimizeRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testPeriod(10),
		Ranges:     []ParamRange{{Name: "minViralityScore", Min: 65, Max: 95, Step: 10}},
		Metric:     MetricMaxDrawdown,
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if out.BestResult.MaxDrawdown != 0 {
		t.Errorf("best drawdown = %v, want 0", out.BestResult.MaxDrawdown)
	}
}

func TestOptimizer_Optimize_MaxIterations(t *testing.T) {
	opt, _ := optimizerFixture(t)

	out, err := opt.Optimize(context.Background(), trendStrategy(t), OptimizeRequest{
		StrategyID:    "trend_momentum",
		Symbol:        "TREND:AI",
		Period:        testPeriod(10),
		Ranges:        []ParamRange{{Name: "minViralityScore", Min: 50, Max: 100, Step: 1}},
		Metric:        MetricTotalReturn,
		MaxIterations: 5,
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if out.TotalIterations != 5 {
		t.Errorf("iterations = %d, want cap of 5", out.TotalIterations)
	}
}

func TestOptimizer_Optimize_Validation(t *testing.T) {
	opt, _ := optimizerFixture(t)

	tests := []struct {
		name string
		req  OptimizeRequest
	}{
		{
			name: "no ranges",
			req:  OptimizeRequest{Symbol: "TREND:AI", Period: testPeriod(10)},
		},
		{
			name: "zero step",
			req: OptimizeRequest{
				Symbol: "TREND:AI", Period: testPeriod(10),
				Ranges: []ParamRange{{Name: "a", Min: 0, Max: 10, Step: 0}},
			},
		},
		{
			name: "inverted range",
			req: OptimizeRequest{
				Symbol: "TREND:AI", Period: testPeriod(10),
				Ranges: []ParamRange{{Name: "a", Min: 10, Max: 0, Step: 1}},
			},
		},
		{
			name: "unknown metric",
			req: OptimizeRequest{
				Symbol: "TREND:AI", Period: testPeriod(10),
				Ranges: []ParamRange{{Name: "a", Min: 0, Max: 10, Step: 1}},
				Metric: Metric("bogus"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := opt.Optimize(context.Background(), trendStrategy(t), tt.req)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestOptimizer_Optimize_Cancelled(t *testing.T) {
	opt, _ := optimizerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := opt.Optimize(ctx, trendStrategy(t), OptimizeRequest{
		Symbol: "TREND:AI",
		Period: testPeriod(10),
		Ranges: []ParamRange{{Name: "minViralityScore", Min: 50, Max: 90, Step: 10}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
