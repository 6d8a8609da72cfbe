package portfolio

import (
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	// DefaultStopThreshold is the rolling drawdown (in account currency)
	// below which a strategy is halted.
	DefaultStopThreshold = -5.0

	// restartFraction of the stop threshold must be recovered before a
	// halted strategy resumes trading.
	restartFraction = 0.5
)

// DrawdownFilterConfig controls the rolling drawdown circuit breaker.
type DrawdownFilterConfig struct {
	Window        int     // rolling max window in observations
	StopThreshold float64 // negative, in account currency
}

// DrawdownFilterResult carries the filtered balance path and the
// activity mask that produced it.
type DrawdownFilterResult struct {
	Filtered  types.BalanceSeries
	Active    []bool
	Stops     int
	Restarts  int
	FinalStop bool
}

// ApplyDrawdownFilter replays a balance series through a rolling
// drawdown stop. The rolling maximum tracks the raw balance over the
// window (partial windows count from the first observation). When the
// drawdown against that maximum breaches the stop threshold the
// filtered balance freezes; trading resumes on the bar after the
// drawdown recovers past half the threshold.
func ApplyDrawdownFilter(series types.BalanceSeries, cfg DrawdownFilterConfig) (*DrawdownFilterResult, error) {
	n := len(series.Balances)
	if n == 0 {
		return nil, errors.NewValidationError("portfolio", "drawdown_filter", "balance series is empty")
	}
	if len(series.Dates) != n {
		return nil, errors.NewValidationError("portfolio", "drawdown_filter", "dates and balances length mismatch")
	}
	if cfg.Window <= 0 {
		return nil, errors.NewValidationError("portfolio", "drawdown_filter", "window must be positive")
	}
	if cfg.StopThreshold >= 0 {
		return nil, errors.NewValidationError("portfolio", "drawdown_filter", "stop threshold must be negative")
	}

	res := &DrawdownFilterResult{
		Filtered: types.BalanceSeries{
			Dates:    append([]time.Time(nil), series.Dates...),
			Balances: make([]float64, n),
		},
		Active: make([]bool, n),
	}

	active := true
	filtered := series.Balances[0]
	res.Filtered.Balances[0] = filtered
	res.Active[0] = true

	for i := 1; i < n; i++ {
		rollingMax := rollingMaxAt(series.Balances, i, cfg.Window)
		drawdown := series.Balances[i] - rollingMax

		if active {
			filtered += series.Balances[i] - series.Balances[i-1]
			if drawdown < cfg.StopThreshold {
				active = false
				res.Stops++
			}
		} else if drawdown > cfg.StopThreshold*restartFraction {
			// Recovered enough; trade again from the next bar.
			active = true
			res.Restarts++
		}

		res.Filtered.Balances[i] = filtered
		res.Active[i] = active
	}
	res.FinalStop = !active
	return res, nil
}

// rollingMaxAt returns the maximum of values over the window ending at
// index i, shrinking at the left edge.
func rollingMaxAt(values []float64, i, window int) float64 {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	max := values[start]
	for j := start + 1; j <= i; j++ {
		if values[j] > max {
			max = values[j]
		}
	}
	return max
}
