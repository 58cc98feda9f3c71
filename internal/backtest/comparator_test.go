package backtest

import (
	"context"
	"testing"

	"github.com/trendsim/trendsim/internal/data"
	"github.com/trendsim/trendsim/internal/strategy"
)

func comparatorFixture(t *testing.T) *Comparator {
	t.Helper()
	src := data.NewMemorySource()
	// trend_momentum trades +10%; sentiment_reversal never fires on this
	// series (RSI stays high, sentiment at zero).
	closes := []float64{95, 96, 97, 100, 104, 106, 108, 110, 109, 108}
	momentum := []float64{60, 60, 60, 80, 75, 75, 75, 40, 60, 60}
	src.Put("TREND:AI", trendBars(closes, momentum))

	repo := strategy.NewRepository(strategy.NewMemoryStore(), nil)
	return NewComparator(NewSimulator(src), repo, nil)
}

func TestComparator_Compare(t *testing.T) {
	cmp := comparatorFixture(t)

	entries, err := cmp.Compare(context.Background(), CompareRequest{
		StrategyIDs: []string{"sentiment_reversal", "trend_momentum"},
		Symbol:      "TREND:AI",
		Period:      testPeriod(10),
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].StrategyID != "trend_momentum" {
		t.Errorf("rank 1 = %s, want trend_momentum", entries[0].StrategyID)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", entries[0].Rank, entries[1].Rank)
	}
	if entries[0].Result.TotalReturn < entries[1].Result.TotalReturn {
		t.Error("entries must be sorted by total return descending")
	}
	if entries[0].Result.Metrics == nil {
		t.Error("compared results must carry analyzer metrics")
	}
}

func TestComparator_Compare_SkipsUnknownStrategy(t *testing.T) {
	cmp := comparatorFixture(t)

	entries, err := cmp.Compare(context.Background(), CompareRequest{
		StrategyIDs: []string{"trend_momentum", "does_not_exist", "sentiment_reversal"},
		Symbol:      "TREND:AI",
		Period:      testPeriod(10),
	})
	if err != nil {
		t.Fatalf("one bad strategy must not fail the batch, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.StrategyID == "does_not_exist" {
			t.Error("unknown strategy must be omitted")
		}
	}
}

func TestComparator_Compare_TiesKeepRequestOrder(t *testing.T) {
	cmp := comparatorFixture(t)

	// Both system strategies on a series neither trades: total returns
	// tie at zero and the request order decides.
	src := data.NewMemorySource()
	src.Put("FLAT", trendBars([]float64{100, 100, 100}, []float64{60, 60, 60}))
	cmp.simulator = NewSimulator(src)

	entries, err := cmp.Compare(context.Background(), CompareRequest{
		StrategyIDs: []string{"sentiment_reversal", "trend_momentum"},
		Symbol:      "FLAT",
		Period:      testPeriod(3),
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].StrategyID != "sentiment_reversal" {
		t.Errorf("tied entries must keep request order, rank 1 = %s", entries[0].StrategyID)
	}
}

func TestComparator_Compare_LargeBatch(t *testing.T) {
	cmp := comparatorFixture(t)

	// Seven IDs exercise the batching loop past two full batches.
	ids := []string{
		"trend_momentum", "sentiment_reversal", "missing1",
		"missing2", "trend_momentum", "missing3", "sentiment_reversal",
	}
	entries, err := cmp.Compare(context.Background(), CompareRequest{
		StrategyIDs: ids,
		Symbol:      "TREND:AI",
		Period:      testPeriod(10),
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("expected 4 surviving entries, got %d", len(entries))
	}
}
