package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Grid search metrics
	candidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_candidates_total",
			Help: "Total number of grid candidates evaluated",
		},
		[]string{"outcome"},
	)

	candidateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_candidate_duration_seconds",
			Help:    "Distribution of per-candidate evaluation time",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Walk-forward metrics
	walkForwardPeriodsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_walkforward_periods_total",
			Help: "Total number of walk-forward periods processed",
		},
		[]string{"outcome"},
	)

	// Portfolio metrics
	rebalanceEpochsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_rebalance_epochs_total",
			Help: "Total number of portfolio rebalance epochs computed",
		},
		[]string{"policy"},
	)

	portfolioFinalValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolio_final_value",
			Help: "Final compounded portfolio value of the last backtest",
		},
		[]string{"policy"},
	)
)

func init() {
	prometheus.MustRegister(candidatesTotal)
	prometheus.MustRegister(candidateDuration)
	prometheus.MustRegister(walkForwardPeriodsTotal)
	prometheus.MustRegister(rebalanceEpochsTotal)
	prometheus.MustRegister(portfolioFinalValue)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordCandidate records one evaluated grid candidate.
func RecordCandidate(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	candidatesTotal.WithLabelValues(outcome).Inc()
}

// ObserveCandidateDuration records how long one candidate evaluation took.
func ObserveCandidateDuration(seconds float64) {
	candidateDuration.Observe(seconds)
}

// RecordWalkForwardPeriod records one processed walk-forward period.
func RecordWalkForwardPeriod(outcome string) {
	walkForwardPeriodsTotal.WithLabelValues(outcome).Inc()
}

// RecordRebalanceEpoch records one portfolio rebalance epoch.
func RecordRebalanceEpoch(policy string) {
	rebalanceEpochsTotal.WithLabelValues(policy).Inc()
}

// SetPortfolioFinalValue publishes the final value of a portfolio backtest.
func SetPortfolioFinalValue(policy string, value float64) {
	portfolioFinalValue.WithLabelValues(policy).Set(value)
}
