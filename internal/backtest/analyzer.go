// internal/backtest/analyzer.go
package backtest

import (
	"math"
)

// tradingDaysPerYear annualizes per-bar statistics.
const tradingDaysPerYear = 252

// Analyze derives risk-adjusted performance metrics from a completed
// result, an optional benchmark-returns series and a risk-free rate.
// Degenerate inputs (0 or 1 trades/bars, flat curves) produce zeros or
// the documented Infinity cases, never a panic.
func Analyze(result *Result, benchmarkReturns []float64, riskFreeRate float64) Metrics {
	returns := equityReturns(result.Equity)
	alpha, beta := alphaBeta(returns, benchmarkReturns, riskFreeRate)

	return Metrics{
		SharpeRatio:  sharpe(returns),
		SortinoRatio: sortino(returns, riskFreeRate),
		CalmarRatio:  calmar(result.TotalReturn, result.MaxDrawdown),
		ProfitFactor: tradeProfitFactor(result.Trades),
		Alpha:        alpha,
		Beta:         beta,
		Volatility:   stddev(returns) * math.Sqrt(tradingDaysPerYear) * 100,
	}
}

// equityReturns converts an equity curve into period-over-period returns.
func equityReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, equity[i].Equity/prev-1)
	}
	return out
}

// sharpeFromEquity is the simulator's summary Sharpe over the equity curve.
func sharpeFromEquity(equity []EquityPoint) float64 {
	return sharpe(equityReturns(equity))
}

// sharpe is mean/stddev of returns annualized by √252, 0 when stddev is 0.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
}

// sortino penalizes only downside volatility. With no negative returns it
// is +Inf; with a zero downside deviation it is 0.
func sortino(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}

	var sumSquares float64
	for _, r := range downside {
		sumSquares += r * r
	}
	downsideDev := math.Sqrt(sumSquares / float64(len(downside)))
	if downsideDev == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / downsideDev
}

// calmar is total return over absolute max drawdown, 0 when flat.
func calmar(totalReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return totalReturn / math.Abs(maxDrawdown)
}

// profitFactor is gross profit over gross loss: +Inf when every trade
// won, 0 when there were no winners either.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

func tradeProfitFactor(trades []Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.Profit > 0 {
			grossProfit += t.Profit
		} else {
			grossLoss += -t.Profit
		}
	}
	return profitFactor(grossProfit, grossLoss)
}

// alphaBeta regresses strategy returns against benchmark returns. With
// fewer than 2 benchmark points the defaults are alpha=0, beta=1. Series
// are paired positionally and truncated to the shorter length.
func alphaBeta(strategyReturns, benchmarkReturns []float64, riskFreeRate float64) (float64, float64) {
	if len(benchmarkReturns) < 2 || len(strategyReturns) < 2 {
		return 0, 1
	}

	n := len(strategyReturns)
	if len(benchmarkReturns) < n {
		n = len(benchmarkReturns)
	}
	strat := strategyReturns[:n]
	bench := benchmarkReturns[:n]

	avgStrat := mean(strat)
	avgBench := mean(bench)

	var covariance, variance float64
	for i := 0; i < n; i++ {
		covariance += (strat[i] - avgStrat) * (bench[i] - avgBench)
		variance += (bench[i] - avgBench) * (bench[i] - avgBench)
	}

	beta := 1.0
	if variance != 0 {
		beta = covariance / variance
	}
	alpha := avgStrat - (riskFreeRate + beta*(avgBench-riskFreeRate))
	return alpha, beta
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation, 0 for fewer than 2 values.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
