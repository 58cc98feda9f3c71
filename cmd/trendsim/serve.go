package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/api"
	"github.com/trendsim/trendsim/internal/api/handler"
	"github.com/trendsim/trendsim/internal/job"
	"github.com/trendsim/trendsim/internal/logger"
	"github.com/trendsim/trendsim/internal/metrics"
	"github.com/trendsim/trendsim/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trendsim API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	d, err := wire(cfg, log, reg)
	if err != nil {
		return err
	}
	defer d.close()

	jobs := job.NewStore(cfg.Server.MaxJobs,
		time.Duration(cfg.Server.JobTTLHours)*time.Hour)
	runner := job.NewRunner(jobs, d.engine, cfg.Backtest.Timeout, log)

	deps := api.Deps{
		Backtest: handler.NewBacktestHandler(runner, jobs),
		Strategy: handler.NewStrategyHandler(d.repo),
		Metrics:  reg,
	}
	if d.sink != nil {
		deps.Results = handler.NewResultHandler(d.sink)
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, deps, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Keep the job and strategy gauges current while serving.
	stopGauge := make(chan struct{})
	if reg != nil {
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					reg.SetJobsActive("all", jobs.Active())
					if all, err := d.repo.List(context.Background(), strategy.Filter{}); err == nil {
						reg.SetStrategyCount(len(all))
					}
				case <-stopGauge:
					return
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stopGauge)

	log.Info("shutting down trendsim server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
