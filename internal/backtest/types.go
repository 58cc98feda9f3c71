package backtest

import (
	"time"

	"github.com/trendsim/trendsim/internal/core"
)

// Status is the lifecycle state of a backtest run
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Trade represents one completed round trip from entry to exit
type Trade struct {
	EntryTime  time.Time     `json:"entry_time"`
	ExitTime   time.Time     `json:"exit_time"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price"`
	Quantity   float64       `json:"quantity"`
	Profit     float64       `json:"profit"`
	Returns    float64       `json:"returns"`
	HoldPeriod time.Duration `json:"hold_period"`
}

// IsWin reports whether the trade was profitable. Zero-profit trades
// count as losses.
func (t Trade) IsWin() bool {
	return t.Profit > 0
}

// EquityPoint is one sample of the running account value, emitted per
// processed bar whether or not a trade occurred on that bar
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Returns   float64   `json:"returns"`
	Drawdown  float64   `json:"drawdown,omitempty"`
}

// Metrics holds the analyzer's risk-adjusted performance measures
type Metrics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	ProfitFactor float64 `json:"profit_factor"`
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	Volatility   float64 `json:"volatility"`
}

// Result is the durable artifact of one simulation run. It is immutable
// once Status reaches COMPLETED or FAILED.
type Result struct {
	ID             string         `json:"id"`
	StrategyID     string         `json:"strategy_id"`
	Symbol         string         `json:"symbol"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	InitialCapital float64        `json:"initial_capital"`
	FinalCapital   float64        `json:"final_capital"`
	TotalReturn    float64        `json:"total_return"`
	SharpeRatio    float64        `json:"sharpe_ratio"`
	MaxDrawdown    float64        `json:"max_drawdown"`
	WinRate        float64        `json:"win_rate"`
	TotalTrades    int            `json:"total_trades"`
	WinningTrades  int            `json:"winning_trades"`
	LosingTrades   int            `json:"losing_trades"`
	AvgWin         float64        `json:"avg_win"`
	AvgLoss        float64        `json:"avg_loss"`
	ProfitFactor   float64        `json:"profit_factor"`
	Trades         []Trade        `json:"trades"`
	Equity         []EquityPoint  `json:"equity"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	Status         Status         `json:"status"`
	Error          string         `json:"error,omitempty"`
	// OpenPosition flags that a LONG position was still open on the last
	// bar. Its unrealized P&L is dropped from trade statistics rather
	// than marked to market.
	OpenPosition  bool          `json:"open_position,omitempty"`
	Metrics       *Metrics      `json:"metrics,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OptimizationResult is the outcome of a grid search
type OptimizationResult struct {
	StrategyID      string         `json:"strategy_id"`
	Metric          Metric         `json:"metric"`
	BestParameters  map[string]any `json:"best_parameters"`
	BestResult      *Result        `json:"best_result"`
	AllResults      []*Result      `json:"all_results"`
	TotalIterations int            `json:"total_iterations"`
}

// ComparisonEntry is one ranked strategy in a comparison
type ComparisonEntry struct {
	Rank       int     `json:"rank"`
	StrategyID string  `json:"strategy_id"`
	Result     *Result `json:"result"`
}

// RunRequest describes one backtest run
type RunRequest struct {
	StrategyID     string         `json:"strategy_id"`
	Symbol         string         `json:"symbol"`
	Period         core.Period    `json:"period"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	InitialCapital float64        `json:"initial_capital,omitempty"`
	Benchmark      string         `json:"benchmark,omitempty"`
	RiskFreeRate   float64        `json:"risk_free_rate,omitempty"`
}

// DefaultInitialCapital is used when a request does not set one.
const DefaultInitialCapital = 10000.0

// ParamRange is one grid-search axis. Declaration order is significant:
// the first declared range is the outermost loop.
type ParamRange struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// OptimizeRequest describes a grid-search run
type OptimizeRequest struct {
	StrategyID     string       `json:"strategy_id"`
	Symbol         string       `json:"symbol"`
	Period         core.Period  `json:"period"`
	Ranges         []ParamRange `json:"ranges"`
	Metric         Metric       `json:"metric"`
	MaxIterations  int          `json:"max_iterations,omitempty"`
	InitialCapital float64      `json:"initial_capital,omitempty"`
}

// CompareRequest describes a multi-strategy comparison
type CompareRequest struct {
	StrategyIDs    []string    `json:"strategy_ids"`
	Symbol         string      `json:"symbol"`
	Period         core.Period `json:"period"`
	InitialCapital float64     `json:"initial_capital,omitempty"`
	Benchmark      string      `json:"benchmark,omitempty"`
}
