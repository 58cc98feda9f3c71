// internal/api/handler/backtest.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/trendsim/trendsim/internal/api/response"
	"github.com/trendsim/trendsim/internal/backtest"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/job"
)

const dateLayout = "2006-01-02"

// BacktestRequest is the request body for starting a backtest job.
type BacktestRequest struct {
	Strategy       string         `json:"strategy"`
	Symbol         string         `json:"symbol"`
	Start          string         `json:"start"`
	End            string         `json:"end"`
	Params         map[string]any `json:"params,omitempty"`
	InitialCapital float64        `json:"initial_capital,omitempty"`
	Benchmark      string         `json:"benchmark,omitempty"`
	RiskFreeRate   float64        `json:"risk_free_rate,omitempty"`
}

// OptimizeRequest is the request body for starting a grid search.
type OptimizeRequest struct {
	Strategy       string       `json:"strategy"`
	Symbol         string       `json:"symbol"`
	Start          string       `json:"start"`
	End            string       `json:"end"`
	Ranges         []RangeInput `json:"ranges"`
	Metric         string       `json:"metric,omitempty"`
	MaxIterations  int          `json:"max_iterations,omitempty"`
	InitialCapital float64      `json:"initial_capital,omitempty"`
}

// RangeInput is one grid-search axis in a request body.
type RangeInput struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// CompareRequest is the request body for a strategy comparison.
type CompareRequest struct {
	Strategies     []string `json:"strategies"`
	Symbol         string   `json:"symbol"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	InitialCapital float64  `json:"initial_capital,omitempty"`
	Benchmark      string   `json:"benchmark,omitempty"`
}

// BacktestHandler exposes backtest operations as async jobs.
type BacktestHandler struct {
	runner *job.Runner
	jobs   *job.Store
}

// NewBacktestHandler creates a backtest handler.
func NewBacktestHandler(runner *job.Runner, jobs *job.Store) *BacktestHandler {
	return &BacktestHandler{runner: runner, jobs: jobs}
}

func parsePeriod(start, end string) (core.Period, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return core.Period{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("invalid start date %q", start))
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return core.Period{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("invalid end date %q", end))
	}
	if !e.After(s) {
		return core.Period{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("end date must be after start date"))
	}
	return core.Period{Start: s, End: e}, nil
}

func acceptedJob(w http.ResponseWriter, j *job.Job) {
	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidation, fmt.Errorf("strategy and symbol are required")))
		return
	}
	period, err := parsePeriod(req.Start, req.End)
	if err != nil {
		response.FromError(w, err)
		return
	}

	j := h.runner.SubmitBacktest(r.Context(), backtest.RunRequest{
		StrategyID:     req.Strategy,
		Symbol:         req.Symbol,
		Period:         period,
		Parameters:     req.Params,
		InitialCapital: req.InitialCapital,
		Benchmark:      req.Benchmark,
		RiskFreeRate:   req.RiskFreeRate,
	})
	acceptedJob(w, j)
}

// Optimize starts a grid-search job.
func (h *BacktestHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	if req.Strategy == "" || req.Symbol == "" || len(req.Ranges) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidation,
				fmt.Errorf("strategy, symbol and ranges are required")))
		return
	}
	period, err := parsePeriod(req.Start, req.End)
	if err != nil {
		response.FromError(w, err)
		return
	}

	ranges := make([]backtest.ParamRange, len(req.Ranges))
	for i, rr := range req.Ranges {
		ranges[i] = backtest.ParamRange{Name: rr.Name, Min: rr.Min, Max: rr.Max, Step: rr.Step}
	}

	j := h.runner.SubmitOptimize(r.Context(), backtest.OptimizeRequest{
		StrategyID:     req.Strategy,
		Symbol:         req.Symbol,
		Period:         period,
		Ranges:         ranges,
		Metric:         backtest.Metric(req.Metric),
		MaxIterations:  req.MaxIterations,
		InitialCapital: req.InitialCapital,
	})
	acceptedJob(w, j)
}

// Compare starts a comparison job.
func (h *BacktestHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	if len(req.Strategies) == 0 || req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidation,
				fmt.Errorf("strategies and symbol are required")))
		return
	}
	period, err := parsePeriod(req.Start, req.End)
	if err != nil {
		response.FromError(w, err)
		return
	}

	j := h.runner.SubmitCompare(r.Context(), backtest.CompareRequest{
		StrategyIDs:    req.Strategies,
		Symbol:         req.Symbol,
		Period:         period,
		InitialCapital: req.InitialCapital,
		Benchmark:      req.Benchmark,
	})
	acceptedJob(w, j)
}

// GetJob returns the status of a job, including its result once done.
func (h *BacktestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"kind":     j.Kind,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Stage != "" {
		resp["stage"] = j.Stage
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}
	response.JSON(w, http.StatusOK, resp)
}

// ListJobs returns all live jobs, newest first.
func (h *BacktestHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.jobs.List())
}
