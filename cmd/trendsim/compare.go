package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/logger"
)

var (
	compareSymbol    string
	compareFrom      string
	compareTo        string
	compareBenchmark string
)

var compareCmd = &cobra.Command{
	Use:   "compare [strategy...]",
	Short: "Compare strategies over the same period",
	Long:  "Backtest several strategies on one symbol and rank them by total return",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareSymbol, "symbol", "", "Symbol to backtest (required)")
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "Start date YYYY-MM-DD (required)")
	compareCmd.Flags().StringVar(&compareTo, "to", "", "End date YYYY-MM-DD (required)")
	compareCmd.Flags().StringVar(&compareBenchmark, "benchmark", "", "Benchmark symbol")

	compareCmd.MarkFlagRequired("symbol")
	compareCmd.MarkFlagRequired("from")
	compareCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	period, err := parseRange(compareFrom, compareTo)
	if err != nil {
		return err
	}

	d, err := wire(cfg, log, nil)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backtest.Timeout)
	defer cancel()

	entries, err := d.engine.Compare(ctx, backtest.CompareRequest{
		StrategyIDs:    args,
		Symbol:         compareSymbol,
		Period:         period,
		InitialCapital: cfg.Backtest.InitialCapital,
		Benchmark:      compareBenchmark,
	}, nil)
	if err != nil {
		return err
	}

	fmt.Println("=== trendsim compare ===")
	fmt.Printf("Symbol: %s  Period: %s to %s\n\n",
		compareSymbol, compareFrom, compareTo)
	if len(entries) == 0 {
		fmt.Println("No strategy produced a result")
		return nil
	}

	fmt.Printf("%-4s %-24s %12s %12s %10s %8s\n",
		"Rank", "Strategy", "Return", "Drawdown", "Sharpe", "Trades")
	for _, e := range entries {
		fmt.Printf("%-4d %-24s %11.2f%% %11.2f%% %10.3f %8d\n",
			e.Rank, e.StrategyID,
			e.Result.TotalReturn*100,
			e.Result.MaxDrawdown*100,
			e.Result.SharpeRatio,
			e.Result.TotalTrades,
		)
	}
	return nil
}
