package data

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/trendsim/trendsim/internal/core"
)

// MemorySource is an in-process HistoricalSource for tests and local runs.
type MemorySource struct {
	mu     sync.RWMutex
	series map[string][]core.Bar
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[string][]core.Bar)}
}

// Put replaces the series for a symbol. Bars are kept sorted ascending.
func (m *MemorySource) Put(symbol string, bars []core.Bar) {
	cp := make([]core.Bar, len(bars))
	copy(cp, bars)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })

	m.mu.Lock()
	m.series[symbol] = cp
	m.mu.Unlock()
}

func (m *MemorySource) Load(_ context.Context, symbol string, period core.Period) ([]core.Bar, error) {
	m.mu.RLock()
	series := m.series[symbol]
	m.mu.RUnlock()

	var out []core.Bar
	for _, b := range series {
		if period.Contains(b.Timestamp) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, core.WrapError(core.ErrNoData, errors.New("symbol "+symbol))
	}
	return out, nil
}
