package data

import (
	"context"
	"errors"

	"github.com/trendsim/trendsim/internal/core"
)

// HistoricalSource loads the bar series for a symbol over a period,
// sorted ascending by timestamp. An empty range fails with core.ErrNoData.
type HistoricalSource interface {
	Load(ctx context.Context, symbol string, period core.Period) ([]core.Bar, error)
}

// BenchmarkSource provides per-bar benchmark returns for alpha/beta
// regression. An empty slice is a valid response.
type BenchmarkSource interface {
	Returns(ctx context.Context, symbol string, period core.Period) ([]float64, error)
}

// Returns computes close-to-close returns from a bar series.
func Returns(bars []core.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (bars[i].Close-prev)/prev)
	}
	return out
}

// BenchmarkFromBars adapts a HistoricalSource into a BenchmarkSource by
// deriving close-to-close returns from the benchmark symbol's own bars.
// A missing benchmark series yields an empty slice, not an error.
type BenchmarkFromBars struct {
	Source HistoricalSource
}

func (b *BenchmarkFromBars) Returns(ctx context.Context, symbol string, period core.Period) ([]float64, error) {
	bars, err := b.Source.Load(ctx, symbol, period)
	if err != nil {
		if errors.Is(err, core.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	return Returns(bars), nil
}
