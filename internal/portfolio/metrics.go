package portfolio

import "math"

// MinMetricObservations is the smallest return series the metrics are
// computed for; shorter series report zeros.
const MinMetricObservations = 5

// PerformanceMetrics summarizes one simulated portfolio path.
type PerformanceMetrics struct {
	TotalReturn      float64
	AnnualizedReturn float64
	AnnualizedVol    float64
	SharpeRatio      float64
	MaxDrawdown      float64 // relative, negative or zero
	Observations     int
}

// ComputeMetrics derives performance statistics from a daily return
// series. Volatility and Sharpe annualize with 252 trading days and a
// zero risk-free rate. Max drawdown is the worst peak-to-trough decline
// of the compounded value path, reported as a negative fraction.
func ComputeMetrics(returns []float64) PerformanceMetrics {
	m := PerformanceMetrics{Observations: len(returns)}
	if len(returns) < MinMetricObservations {
		return m
	}

	cum := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := (cum - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	m.TotalReturn = cum - 1
	m.MaxDrawdown = maxDD

	years := float64(len(returns)) / tradingDaysPerYear
	if years > 0 && cum > 0 {
		m.AnnualizedReturn = math.Pow(cum, 1/years) - 1
	}

	mean, std := meanStd(returns)
	m.AnnualizedVol = std * math.Sqrt(tradingDaysPerYear)
	if m.AnnualizedVol > 0 {
		m.SharpeRatio = (mean * tradingDaysPerYear) / m.AnnualizedVol
	}
	return m
}
