package backtest

import (
	"fmt"
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/internal/indicators"
	"github.com/edocame/bollinger-backtest/internal/logger"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	// DefaultBarsPerDay converts day-denominated walk-forward settings
	// into bar counts. One-minute bars on a 24h market give 1440.
	DefaultBarsPerDay = 24 * 60

	// minTradeRows is the smallest post-indicator trading window a
	// period may run on; smaller windows are skipped.
	minTradeRows = 10

	// wfoMinRows is the grid-candidate row threshold used inside
	// walk-forward training windows, which are much shorter than a
	// full-history sweep.
	wfoMinRows = 50
)

// WalkForwardConfig drives a rolling train-then-trade evaluation.
type WalkForwardConfig struct {
	LookbackDays    int // training window length
	IntervalDays    int // trading window length and re-optimization cadence
	BarsPerDay      int // zero means DefaultBarsPerDay
	Grid            GridConfig
	FridayCloseRows int // zero means no Friday forced closure override
}

// PeriodResult records one completed walk-forward period. The trading
// window always begins exactly where the training window ends; that
// zero-gap, zero-overlap split is the anti-lookahead guarantee.
type PeriodResult struct {
	Period     int
	TrainStart time.Time
	TrainEnd   time.Time
	TradeStart time.Time
	TradeEnd   time.Time

	// Winning parameters from the training sweep and their in-sample PnL.
	Window   int
	StdDev   float64
	TrainPnL float64

	// Out-of-sample performance over the trading window.
	Summary Summary
	Trades  []types.Trade
}

// WalkForwardResult aggregates all periods of one evaluation.
type WalkForwardResult struct {
	Periods        []PeriodResult
	CombinedTrades []types.Trade

	// Combined statistics over the concatenated out-of-sample trades.
	TotalPeriods    int // attempted periods, including skipped ones
	TotalPnL        float64
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	MaxDrawdown     float64
	AvgPnLPerPeriod float64
}

// RunWalkForward walks the bar history with a rolling lookback window:
// it optimizes parameters on each training window, applies the winner
// to the immediately following unseen trading window, and aggregates
// the out-of-sample results. Periods that fail or lack data are logged
// and skipped without aborting the run.
func RunWalkForward(bars []types.Bar, cfg WalkForwardConfig, log *logger.Logger) (*WalkForwardResult, error) {
	if cfg.LookbackDays <= 0 || cfg.IntervalDays <= 0 {
		return nil, errors.NewValidationError("walkforward", "run", "lookback and optimization interval must be positive")
	}

	barsPerDay := cfg.BarsPerDay
	if barsPerDay <= 0 {
		barsPerDay = DefaultBarsPerDay
	}
	lookbackBars := cfg.LookbackDays * barsPerDay
	intervalBars := cfg.IntervalDays * barsPerDay

	dataLength := len(bars)
	if dataLength < lookbackBars {
		return nil, errors.NewValidationError("walkforward", "run",
			fmt.Sprintf("insufficient data: need at least %d days", cfg.LookbackDays))
	}

	grid := cfg.Grid
	if grid.MinRows <= 0 {
		grid.MinRows = wfoMinRows
	}

	result := &WalkForwardResult{}
	periodCount := 0

	for start := lookbackBars; start+intervalBars < dataLength; start += intervalBars {
		periodCount++

		period, err := runPeriod(bars, start, lookbackBars, intervalBars, grid, cfg.FridayCloseRows, periodCount)
		if err != nil {
			// Contained: the period is skipped, subsequent periods
			// still run.
			if log != nil {
				if errors.IsInsufficientData(err) {
					log.Period("period %d skipped: %v", periodCount, err)
				} else {
					log.LogError(fmt.Sprintf("period %d", periodCount), err)
				}
			}
			monitoring.RecordWalkForwardPeriod("skipped")
			continue
		}

		result.Periods = append(result.Periods, *period)
		result.CombinedTrades = append(result.CombinedTrades, period.Trades...)
		monitoring.RecordWalkForwardPeriod("completed")

		if log != nil {
			log.Period("period %d: window=%d std=%.1f pnl=%.2f trades=%d win%%=%.1f",
				period.Period, period.Window, period.StdDev,
				period.Summary.TotalPnL, period.Summary.TotalTrades, period.Summary.WinRate)
		}
	}

	result.TotalPeriods = periodCount
	combined := Summarize(result.CombinedTrades)
	result.TotalPnL = combined.TotalPnL
	result.TotalTrades = combined.TotalTrades
	result.WinningTrades = combined.WinningTrades
	result.LosingTrades = combined.LosingTrades
	result.WinRate = combined.WinRate
	result.MaxDrawdown = combined.MaxDrawdown
	if periodCount > 0 {
		result.AvgPnLPerPeriod = result.TotalPnL / float64(periodCount)
	}

	return result, nil
}

// firstUsable returns the best-ranked candidate that evaluated cleanly.
func firstUsable(results []CandidateResult) (CandidateResult, bool) {
	for _, res := range results {
		if res.Err == nil {
			return res, true
		}
	}
	return CandidateResult{}, false
}

// runPeriod executes one train-then-trade cycle. A panic anywhere in
// the period is recovered and reported as a computation error.
func runPeriod(bars []types.Bar, start, lookbackBars, intervalBars int, grid GridConfig, fridayRows, periodNum int) (period *PeriodResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			period = nil
			err = errors.NewComputationError("walkforward", "period", recoveredError(r))
		}
	}()

	trainBars := bars[start-lookbackBars : start]
	tradeEnd := start + intervalBars
	if tradeEnd > len(bars) {
		tradeEnd = len(bars)
	}
	tradeBars := bars[start:tradeEnd]

	// Fit on the training window only.
	optResults, err := Optimize(trainBars, grid)
	if err != nil {
		return nil, err
	}
	best, ok := firstUsable(optResults)
	if !ok {
		return nil, errors.NewInsufficientDataError("walkforward", "optimize", "no usable optimization results")
	}

	// Apply the winning parameters to the unseen trading window.
	series := indicators.BollingerBands(tradeBars, best.Window, best.StdDev).Dropna()
	if series.Len() < minTradeRows {
		return nil, errors.NewInsufficientDataError("walkforward", "trade",
			fmt.Sprintf("only %d usable trading rows", series.Len()))
	}

	opts := []EngineOption{}
	if fridayRows > 0 {
		opts = append(opts, WithFridayClose(FridayCloseFlags(series.Timestamps, fridayRows)))
	}
	engine, err := NewBacktestEngine(series, opts...)
	if err != nil {
		return nil, err
	}
	trades := engine.Run()

	// Tag each trade with its period for downstream reporting.
	for i := range trades {
		trades[i].Period = periodNum
	}

	return &PeriodResult{
		Period:     periodNum,
		TrainStart: trainBars[0].Timestamp,
		TrainEnd:   trainBars[len(trainBars)-1].Timestamp,
		TradeStart: tradeBars[0].Timestamp,
		TradeEnd:   tradeBars[len(tradeBars)-1].Timestamp,
		Window:     best.Window,
		StdDev:     best.StdDev,
		TrainPnL:   best.TotalPnL,
		Summary:    engine.Summary(),
		Trades:     trades,
	}, nil
}
