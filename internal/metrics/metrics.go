package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal        *prometheus.CounterVec
	simulationDuration    prometheus.Histogram
	tradesSimulated       prometheus.Counter
	optimizerCombinations prometheus.Histogram
	comparisonsTotal      prometheus.Counter
	jobsActive            *prometheus.GaugeVec
	strategiesTotal       prometheus.Gauge
	cacheOps              *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendsim_backtests_total",
			Help: "Total number of backtest runs by terminal status",
		},
		[]string{"status"},
	)
	r.simulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendsim_simulation_duration_seconds",
			Help:    "Simulation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
	r.tradesSimulated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trendsim_trades_simulated_total",
			Help: "Total number of simulated round-trip trades",
		},
	)
	r.optimizerCombinations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendsim_optimizer_combinations",
			Help:    "Parameter combinations evaluated per grid search",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
	r.comparisonsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trendsim_comparisons_total",
			Help: "Total number of strategy comparisons",
		},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendsim_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"kind"},
	)
	r.strategiesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendsim_strategies",
			Help: "Number of stored strategies",
		},
	)
	r.cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendsim_cache_operations_total",
			Help: "Cache operations by result",
		},
		[]string{"operation", "outcome"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.simulationDuration)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.optimizerCombinations)
	reg.MustRegister(r.comparisonsTotal)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.strategiesTotal)
	reg.MustRegister(r.cacheOps)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records one finished run with its trade count.
func (r *Registry) RecordBacktest(status string, duration float64, trades int) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.simulationDuration.Observe(duration)
	r.tradesSimulated.Add(float64(trades))
}

// RecordOptimization records a finished grid search.
func (r *Registry) RecordOptimization(combinations int) {
	r.optimizerCombinations.Observe(float64(combinations))
}

// RecordComparison records a finished comparison.
func (r *Registry) RecordComparison() {
	r.comparisonsTotal.Inc()
}

// SetJobsActive sets the number of active jobs of a kind.
func (r *Registry) SetJobsActive(kind string, count int) {
	r.jobsActive.WithLabelValues(kind).Set(float64(count))
}

// SetStrategyCount sets the stored-strategy gauge.
func (r *Registry) SetStrategyCount(count int) {
	r.strategiesTotal.Set(float64(count))
}

// RecordCacheOp records one cache operation outcome (hit, miss, error).
func (r *Registry) RecordCacheOp(operation, outcome string) {
	r.cacheOps.WithLabelValues(operation, outcome).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
