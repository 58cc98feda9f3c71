package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "trendsim",
	Short: "trendsim - trend strategy backtesting engine",
	Long: `trendsim replays rule-based trading strategies against historical
trend data: price bars enriched with social momentum and sentiment
scores. It simulates trades, scores the results and searches for better
parameters.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
