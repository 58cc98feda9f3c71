package job

import (
	"context"
	"testing"
	"time"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/data"
	"github.com/trendsim/trendsim/internal/strategy"
)

func runnerFixture(t *testing.T) (*Runner, *Store) {
	t.Helper()

	src := data.NewMemorySource()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{95, 96, 97, 100, 104, 106, 108, 110, 109, 108}
	momentum := []float64{60, 60, 60, 80, 75, 75, 75, 40, 60, 60}
	bars := make([]core.Bar, len(closes))
	for i := range closes {
		bars[i] = core.Bar{
			Symbol:        "TREND:AI",
			Timestamp:     base.AddDate(0, 0, i),
			Close:         closes[i],
			Volume:        1000,
			MomentumScore: momentum[i],
		}
	}
	src.Put("TREND:AI", bars)

	repo := strategy.NewRepository(strategy.NewMemoryStore(), nil)
	engine := backtest.NewEngine(repo, backtest.NewSimulator(src), nil, nil)

	store := NewStore(10, time.Hour)
	return NewRunner(store, engine, time.Minute), store
}

func waitForJob(t *testing.T, store *Store, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if j.Done() {
			return j
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func testJobPeriod() core.Period {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return core.Period{Start: base, End: base.AddDate(0, 0, 10)}
}

func TestRunner_SubmitBacktest(t *testing.T) {
	runner, store := runnerFixture(t)

	j := runner.SubmitBacktest(context.Background(), backtest.RunRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testJobPeriod(),
	})

	done := waitForJob(t, store, j.ID)
	if done.Status != StatusComplete {
		t.Fatalf("status = %s, want complete (error: %v)", done.Status, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("progress = %d, want 100", done.Progress)
	}
	result, ok := done.Result.(*backtest.Result)
	if !ok {
		t.Fatalf("result type = %T, want *backtest.Result", done.Result)
	}
	if result.Status != backtest.StatusCompleted {
		t.Errorf("result status = %s, want COMPLETED", result.Status)
	}
}

func TestRunner_SubmitBacktest_UnknownStrategyFailsJob(t *testing.T) {
	runner, store := runnerFixture(t)

	j := runner.SubmitBacktest(context.Background(), backtest.RunRequest{
		StrategyID: "nope",
		Symbol:     "TREND:AI",
		Period:     testJobPeriod(),
	})

	done := waitForJob(t, store, j.ID)
	if done.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", done.Status)
	}
	if done.Error == nil || done.Error.Code != core.ErrNotFound.Code {
		t.Errorf("error = %v, want NOT_FOUND", done.Error)
	}
}

func TestRunner_SubmitOptimize(t *testing.T) {
	runner, store := runnerFixture(t)

	j := runner.SubmitOptimize(context.Background(), backtest.OptimizeRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testJobPeriod(),
		Ranges: []backtest.ParamRange{
			{Name: "minViralityScore", Min: 65, Max: 85, Step: 10},
		},
		Metric: backtest.MetricTotalReturn,
	})

	done := waitForJob(t, store, j.ID)
	if done.Status != StatusComplete {
		t.Fatalf("status = %s, want complete (error: %v)", done.Status, done.Error)
	}
	out, ok := done.Result.(*backtest.OptimizationResult)
	if !ok {
		t.Fatalf("result type = %T, want *backtest.OptimizationResult", done.Result)
	}
	if out.BestResult == nil {
		t.Error("expected a best result")
	}
}

func TestRunner_SubmitCompare(t *testing.T) {
	runner, store := runnerFixture(t)

	j := runner.SubmitCompare(context.Background(), backtest.CompareRequest{
		StrategyIDs: []string{"trend_momentum", "sentiment_reversal"},
		Symbol:      "TREND:AI",
		Period:      testJobPeriod(),
	})

	done := waitForJob(t, store, j.ID)
	if done.Status != StatusComplete {
		t.Fatalf("status = %s, want complete (error: %v)", done.Status, done.Error)
	}
	entries, ok := done.Result.([]backtest.ComparisonEntry)
	if !ok {
		t.Fatalf("result type = %T, want []backtest.ComparisonEntry", done.Result)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRunner_DetachedFromRequestContext(t *testing.T) {
	runner, store := runnerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	j := runner.SubmitBacktest(ctx, backtest.RunRequest{
		StrategyID: "trend_momentum",
		Symbol:     "TREND:AI",
		Period:     testJobPeriod(),
	})
	cancel()

	done := waitForJob(t, store, j.ID)
	if done.Status != StatusComplete {
		t.Errorf("cancelling the submit context must not kill the job, status = %s", done.Status)
	}
}
