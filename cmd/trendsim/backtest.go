package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/logger"
)

var (
	backtestSymbol    string
	backtestFrom      string
	backtestTo        string
	backtestCapital   float64
	backtestBenchmark string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a backtest for one strategy",
	Long:  "Replay a strategy against historical data and print performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "Initial capital (default from config)")
	backtestCmd.Flags().StringVar(&backtestBenchmark, "benchmark", "", "Benchmark symbol for alpha/beta")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func parseRange(from, to string) (core.Period, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
	}
	if !end.After(start) {
		return core.Period{}, fmt.Errorf("end date must be after start date")
	}
	return core.Period{Start: start, End: end}, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	period, err := parseRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	d, err := wire(cfg, log, nil)
	if err != nil {
		return err
	}
	defer d.close()

	capital := backtestCapital
	if capital <= 0 {
		capital = cfg.Backtest.InitialCapital
	}
	benchmark := backtestBenchmark
	if benchmark == "" {
		benchmark = cfg.Backtest.Benchmark
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backtest.Timeout)
	defer cancel()

	result, err := d.engine.RunBacktest(ctx, backtest.RunRequest{
		StrategyID:     args[0],
		Symbol:         backtestSymbol,
		Period:         period,
		InitialCapital: capital,
		Benchmark:      benchmark,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
	}, nil)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(r *backtest.Result) {
	fmt.Println("=== trendsim backtest ===")
	fmt.Printf("Strategy: %s\n", r.StrategyID)
	fmt.Printf("Symbol:   %s\n", r.Symbol)
	fmt.Printf("Period:   %s to %s\n",
		r.StartTime.Format("2006-01-02"), r.EndTime.Format("2006-01-02"))
	fmt.Printf("Status:   %s\n", r.Status)
	if r.Status == backtest.StatusFailed {
		fmt.Printf("Error:    %s\n", r.Error)
		return
	}
	fmt.Println()
	fmt.Printf("Initial capital: %.2f\n", r.InitialCapital)
	fmt.Printf("Final capital:   %.2f\n", r.FinalCapital)
	fmt.Printf("Total return:    %.2f%%\n", r.TotalReturn*100)
	fmt.Printf("Max drawdown:    %.2f%%\n", r.MaxDrawdown*100)
	fmt.Printf("Sharpe ratio:    %.3f\n", r.SharpeRatio)
	fmt.Println()
	fmt.Printf("Trades: %d (%d won / %d lost, win rate %.1f%%)\n",
		r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRate)
	fmt.Printf("Avg win:  %.2f\n", r.AvgWin)
	fmt.Printf("Avg loss: %.2f\n", r.AvgLoss)
	fmt.Printf("Profit factor: %s\n", formatRatio(r.ProfitFactor))
	if r.OpenPosition {
		fmt.Println("Note: a position was still open on the last bar")
	}
	if r.Metrics != nil {
		fmt.Println()
		fmt.Printf("Sortino: %s  Calmar: %.3f  Volatility: %.2f%%\n",
			formatRatio(r.Metrics.SortinoRatio), r.Metrics.CalmarRatio, r.Metrics.Volatility)
		fmt.Printf("Alpha: %.4f  Beta: %.3f\n", r.Metrics.Alpha, r.Metrics.Beta)
	}
	fmt.Printf("\nExecution time: %s\n", r.ExecutionTime)
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", v)
}
