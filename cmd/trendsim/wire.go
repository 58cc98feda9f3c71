package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/cache"
	"github.com/trendsim/trendsim/internal/config"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/data"
	"github.com/trendsim/trendsim/internal/metrics"
	"github.com/trendsim/trendsim/internal/storage/archive"
	"github.com/trendsim/trendsim/internal/storage/result"
	"github.com/trendsim/trendsim/internal/strategy"
)

var _ backtest.Recorder = (*metrics.Registry)(nil)

// deps holds the wired collaborators shared by the CLI commands and the
// server.
type deps struct {
	repo    *strategy.Repository
	source  data.HistoricalSource
	bench   backtest.BenchmarkProvider
	sink    *result.Store
	engine  *backtest.Engine
	cleanup []func() error
}

func (d *deps) close() {
	for _, fn := range d.cleanup {
		fn()
	}
}

// loadConfig reads the config file when one is given, falling back to
// defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// wire builds the engine stack from configuration. Without a hot
// storage DSN everything runs on in-memory stores, which is enough for
// smoke runs but holds no data. reg is nil for one-shot CLI runs.
func wire(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) (*deps, error) {
	d := &deps{}

	var redisCache cache.Cache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisCache = cache.NewRedis(client, "trendsim")
		if reg != nil {
			redisCache = cache.NewInstrumented(redisCache, reg.RecordCacheOp)
		}
		d.cleanup = append(d.cleanup, client.Close)
	}

	// Bar source
	if cfg.Storage.Hot.DSN != "" {
		source, err := data.NewPostgresSource(cfg.Storage.Hot.DSN, core.Interval1d)
		if err != nil {
			return nil, fmt.Errorf("connecting bar source: %w", err)
		}
		d.cleanup = append(d.cleanup, source.Close)
		d.source = source
		if redisCache != nil {
			d.source = data.NewCachedSource(source, redisCache, cfg.Redis.TTL, log)
		}
	} else {
		log.Warn("no hot storage DSN, using empty in-memory bar source")
		d.source = data.NewMemorySource()
	}
	d.bench = &data.BenchmarkFromBars{Source: d.source}

	// Strategy store
	var store strategy.Store
	if cfg.Storage.Hot.DSN != "" {
		pgStore, err := strategy.NewPostgresStore(cfg.Storage.Hot.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting strategy store: %w", err)
		}
		d.cleanup = append(d.cleanup, pgStore.Close)
		store = pgStore
	} else {
		store = strategy.NewMemoryStore()
	}
	d.repo = strategy.NewRepository(store, redisCache, log)

	// Cold storage for results
	switch cfg.Storage.Cold.Type {
	case "localfs":
		a, err := archive.NewLocalFS(cfg.Storage.Cold.Path)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		d.sink = result.NewStore(a, log)
	case "s3":
		a, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.Storage.Cold.S3.Bucket,
			Endpoint:  cfg.Storage.Cold.S3.Endpoint,
			Region:    cfg.Storage.Cold.S3.Region,
			AccessKey: cfg.Storage.Cold.S3.AccessKey,
			SecretKey: cfg.Storage.Cold.S3.SecretKey,
			Prefix:    cfg.Storage.Cold.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening s3 archive: %w", err)
		}
		d.sink = result.NewStore(a, log)
	}

	var sink backtest.ResultSink
	if d.sink != nil {
		sink = d.sink
	}
	d.engine = backtest.NewEngine(d.repo, backtest.NewSimulator(d.source, log), d.bench, sink, log)
	if reg != nil {
		d.engine.SetRecorder(reg)
	}
	return d, nil
}
