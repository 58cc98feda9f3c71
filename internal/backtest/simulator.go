package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/data"
	"github.com/trendsim/trendsim/internal/indicator"
	"github.com/trendsim/trendsim/internal/rule"
	"github.com/trendsim/trendsim/internal/strategy"
)

// Simulator replays a strategy bar-by-bar against historical data.
type Simulator struct {
	source data.HistoricalSource
	logger *zap.Logger
}

// NewSimulator creates a Simulator over the given bar source.
func NewSimulator(source data.HistoricalSource, logger ...*zap.Logger) *Simulator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Simulator{source: source, logger: l}
}

// Run executes one backtest. Validation and data-loading failures return
// an error; failures inside the simulation loop are absorbed into a
// FAILED result so a single bad run never retry-storms the queue layer.
func (s *Simulator) Run(ctx context.Context, strat *strategy.Strategy, req RunRequest) (*Result, error) {
	capital := req.InitialCapital
	if capital <= 0 {
		capital = DefaultInitialCapital
	}

	ruleSet, err := rule.Compile(strat.Rules)
	if err != nil {
		return nil, err
	}

	params := strat.DefaultParams()
	for k, v := range req.Parameters {
		params[k] = v
	}

	bars, err := s.source.Load(ctx, req.Symbol, req.Period)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := &Result{
		ID:             uuid.NewString(),
		StrategyID:     strat.ID,
		Symbol:         req.Symbol,
		StartTime:      req.Period.Start,
		EndTime:        req.Period.End,
		InitialCapital: capital,
		Parameters:     params,
		Status:         StatusRunning,
		CreatedAt:      started.UTC(),
	}

	if err := s.simulate(ctx, ruleSet, params, capital, bars, result); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.Status = StatusFailed
		result.Error = err.Error()
		result.ExecutionTime = time.Since(started)
		s.logger.Warn("simulation failed",
			zap.String("strategy", strat.ID),
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
		return result, nil
	}

	result.Status = StatusCompleted
	result.ExecutionTime = time.Since(started)
	return result, nil
}

// position is the single-position state machine: nil while FLAT.
type position struct {
	entryTime  time.Time
	entryPrice float64
	quantity   float64
}

// simulate walks the bar series chronologically and fills result in
// place. Any returned error marks the run FAILED.
func (s *Simulator) simulate(
	ctx context.Context,
	ruleSet *rule.RuleSet,
	params map[string]any,
	capital float64,
	bars []core.Bar,
	result *Result,
) (err error) {
	// Unexpected data shapes must fail the run, not the process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulation panic: %v", r)
		}
	}()

	if len(bars) == 0 {
		return fmt.Errorf("no bars to simulate")
	}

	equity := capital
	peak := capital
	var maxDrawdown float64
	var open *position
	var trades []Trade
	equityCurve := make([]EquityPoint, 0, len(bars))

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Window is the inclusive prefix: no look-ahead.
		ind := indicator.Calculate(bars[:i+1])
		signals := ruleSet.Evaluate(bar, ind, params)

		for _, sig := range signals {
			switch sig.Type {
			case core.SignalBuy:
				if open != nil {
					continue // Already LONG
				}
				if bar.Close <= 0 {
					return fmt.Errorf("cannot open position at non-positive price %v on %s",
						bar.Close, bar.Timestamp.Format(time.RFC3339))
				}
				open = &position{
					entryTime:  bar.Timestamp,
					entryPrice: bar.Close,
					quantity:   capital / bar.Close,
				}
			case core.SignalSell, core.SignalExit:
				if open == nil {
					continue // Nothing to close
				}
				if open.entryTime.Equal(bar.Timestamp) {
					// Opened this bar; an exit needs a later bar so
					// every trade has exitTime > entryTime.
					continue
				}
				returns := (bar.Close - open.entryPrice) / open.entryPrice
				// Position sizing is always the full initial capital,
				// never compounded equity.
				profit := returns * capital
				trades = append(trades, Trade{
					EntryTime:  open.entryTime,
					ExitTime:   bar.Timestamp,
					EntryPrice: open.entryPrice,
					ExitPrice:  bar.Close,
					Quantity:   open.quantity,
					Profit:     profit,
					Returns:    returns,
					HoldPeriod: bar.Timestamp.Sub(open.entryTime),
				})
				open = nil

				equity += profit
				if equity > peak {
					peak = equity
				}
				if peak > 0 {
					if dd := (peak - equity) / peak; dd > maxDrawdown {
						maxDrawdown = dd
					}
				}
			}
		}

		point := EquityPoint{
			Timestamp: bar.Timestamp,
			Equity:    equity,
			Returns:   equity/capital - 1,
		}
		if peak > 0 {
			point.Drawdown = (peak - equity) / peak
		}
		equityCurve = append(equityCurve, point)
	}

	// A position still open on the last bar is left as-is: its
	// unrealized P&L is dropped from trade statistics.
	result.OpenPosition = open != nil
	result.Trades = trades
	result.Equity = equityCurve
	result.FinalCapital = equity
	result.TotalReturn = equity/capital - 1
	result.MaxDrawdown = maxDrawdown
	result.SharpeRatio = sharpeFromEquity(equityCurve)
	fillTradeStats(result)
	return nil
}

// fillTradeStats derives the trade-level aggregates on result.
func fillTradeStats(result *Result) {
	var grossProfit, grossLoss float64
	for _, t := range result.Trades {
		if t.IsWin() {
			result.WinningTrades++
			grossProfit += t.Profit
		} else {
			result.LosingTrades++
			grossLoss += -t.Profit
		}
	}
	result.TotalTrades = len(result.Trades)

	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades) * 100
	}
	if result.WinningTrades > 0 {
		result.AvgWin = grossProfit / float64(result.WinningTrades)
	}
	if result.LosingTrades > 0 {
		result.AvgLoss = grossLoss / float64(result.LosingTrades)
	}
	result.ProfitFactor = profitFactor(grossProfit, grossLoss)
}
