package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/logger"
)

var (
	optimizeSymbol  string
	optimizeFrom    string
	optimizeTo      string
	optimizeRanges  []string
	optimizeMetric  string
	optimizeMaxIter int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [strategy]",
	Short: "Grid-search strategy parameters",
	Long: `Run a bounded grid search over parameter ranges and report the best
combination. Ranges are given as name=min:max:step, for example:

  trendsim optimize trend_momentum --symbol TREND:AI \
      --from 2025-01-01 --to 2025-06-01 \
      --range minViralityScore=50:90:10 --metric sharpeRatio`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeSymbol, "symbol", "", "Symbol to backtest (required)")
	optimizeCmd.Flags().StringVar(&optimizeFrom, "from", "", "Start date YYYY-MM-DD (required)")
	optimizeCmd.Flags().StringVar(&optimizeTo, "to", "", "End date YYYY-MM-DD (required)")
	optimizeCmd.Flags().StringArrayVar(&optimizeRanges, "range", nil,
		"Parameter range name=min:max:step (repeatable, required)")
	optimizeCmd.Flags().StringVar(&optimizeMetric, "metric", "totalReturn", "Optimization metric")
	optimizeCmd.Flags().IntVar(&optimizeMaxIter, "max-iterations", 0,
		"Combination cap (default from config)")

	optimizeCmd.MarkFlagRequired("symbol")
	optimizeCmd.MarkFlagRequired("from")
	optimizeCmd.MarkFlagRequired("to")
	optimizeCmd.MarkFlagRequired("range")

	rootCmd.AddCommand(optimizeCmd)
}

// parseRangeSpec parses one name=min:max:step flag value.
func parseRangeSpec(spec string) (backtest.ParamRange, error) {
	name, bounds, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return backtest.ParamRange{}, fmt.Errorf("invalid range %q: expected name=min:max:step", spec)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) != 3 {
		return backtest.ParamRange{}, fmt.Errorf("invalid range %q: expected name=min:max:step", spec)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return backtest.ParamRange{}, fmt.Errorf("invalid range %q: %w", spec, err)
		}
		vals[i] = v
	}
	return backtest.ParamRange{Name: name, Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	period, err := parseRange(optimizeFrom, optimizeTo)
	if err != nil {
		return err
	}

	ranges := make([]backtest.ParamRange, 0, len(optimizeRanges))
	for _, spec := range optimizeRanges {
		r, err := parseRangeSpec(spec)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	maxIter := optimizeMaxIter
	if maxIter <= 0 {
		maxIter = cfg.Optimizer.MaxIterations
	}

	d, err := wire(cfg, log, nil)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backtest.Timeout)
	defer cancel()

	out, err := d.engine.Optimize(ctx, backtest.OptimizeRequest{
		StrategyID:     args[0],
		Symbol:         optimizeSymbol,
		Period:         period,
		Ranges:         ranges,
		Metric:         backtest.Metric(optimizeMetric),
		MaxIterations:  maxIter,
		InitialCapital: cfg.Backtest.InitialCapital,
	}, nil)
	if err != nil {
		return err
	}

	fmt.Println("=== trendsim optimize ===")
	fmt.Printf("Strategy:   %s\n", out.StrategyID)
	fmt.Printf("Metric:     %s\n", out.Metric)
	fmt.Printf("Iterations: %d\n", out.TotalIterations)
	fmt.Println()
	fmt.Println("Best parameters:")
	for name, value := range out.BestParameters {
		fmt.Printf("  %s = %v\n", name, value)
	}
	fmt.Println()
	printResult(out.BestResult)
	return nil
}
