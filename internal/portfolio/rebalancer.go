package portfolio

import (
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
)

const (
	// RebalanceIntervalDays fixes the epoch spacing on the daily index.
	RebalanceIntervalDays = 7

	// MinLookbackDays bounds how far the lookback window may shrink when
	// the table is shorter than the requested window.
	MinLookbackDays = 5
)

// RebalanceEpoch records one weight recomputation on the schedule.
type RebalanceEpoch struct {
	Index   int
	Date    time.Time
	Weights []float64
}

// RebalanceResult is the simulated portfolio path for one policy.
type RebalanceResult struct {
	Policy     string
	Lookback   int
	Dates      []time.Time
	Values     []float64
	Returns    []float64
	Epochs     []RebalanceEpoch
	FinalValue float64
}

// Rebalancer replays a weekly rebalanced portfolio over an aligned
// returns table. Weights refresh on Sundays; between epochs they stay
// frozen and the portfolio compounds the weighted daily return.
type Rebalancer struct {
	table *ReturnsTable
}

// NewRebalancer validates the table and wraps it for simulation.
func NewRebalancer(table *ReturnsTable) (*Rebalancer, error) {
	if table == nil || table.Days() == 0 {
		return nil, errors.NewValidationError("portfolio", "rebalance", "returns table is empty")
	}
	if len(table.Strategies) == 0 {
		return nil, errors.NewValidationError("portfolio", "rebalance", "returns table has no strategies")
	}
	return &Rebalancer{table: table}, nil
}

// Run simulates the portfolio over the full table, starting at value
// 1.0 on the first day. The requested lookback shrinks when the table
// is too short for it.
func (r *Rebalancer) Run(lookback int, policy AllocationPolicy) (*RebalanceResult, error) {
	if policy == nil {
		return nil, errors.NewValidationError("portfolio", "rebalance", "allocation policy is nil")
	}
	if lookback <= 0 {
		return nil, errors.NewValidationError("portfolio", "rebalance", "lookback must be positive")
	}

	n := r.table.Days()
	if lookback >= n {
		shrunk := n / 10
		if shrunk < MinLookbackDays {
			shrunk = MinLookbackDays
		}
		if shrunk >= n {
			return nil, errors.NewInsufficientDataError("portfolio", "rebalance", "returns table too short for any lookback window")
		}
		lookback = shrunk
	}

	epochIndices := r.scheduleEpochs(lookback)

	var epochs []RebalanceEpoch
	weightsAt := make(map[int][]float64, len(epochIndices))
	for _, idx := range epochIndices {
		w := r.computeWeights(idx, lookback, policy)
		weightsAt[idx] = w
		epochs = append(epochs, RebalanceEpoch{Index: idx, Date: r.table.Dates[idx], Weights: w})
		monitoring.RecordRebalanceEpoch(policy.Name())
	}

	// Weights from the first scheduled epoch are live from the start of
	// the simulation, before that epoch is reached.
	var current []float64
	if len(epochs) > 0 {
		current = epochs[0].Weights
	} else {
		current = equalWeights(len(r.table.Strategies))
	}

	result := &RebalanceResult{Policy: policy.Name(), Lookback: lookback, Epochs: epochs}
	value := 1.0
	for d := 0; d < n; d++ {
		if w, ok := weightsAt[d]; ok {
			current = w
		}
		ret := dot(current, r.table.Returns[d])
		value *= 1 + ret
		result.Dates = append(result.Dates, r.table.Dates[d])
		result.Values = append(result.Values, value)
		result.Returns = append(result.Returns, ret)
	}
	result.FinalValue = value

	monitoring.SetPortfolioFinalValue(policy.Name(), value)
	return result, nil
}

// scheduleEpochs anchors a weekly grid on the first Sunday within the
// seven bars at or after the lookback boundary. Each grid slot snaps
// forward to the nearest Sunday within its interval; a slot with no
// Sunday is skipped. No anchor at all means no epochs, and the caller
// holds static equal weights.
func (r *Rebalancer) scheduleEpochs(lookback int) []int {
	n := r.table.Days()
	anchor := -1
	for i := lookback; i < n && i < lookback+RebalanceIntervalDays; i++ {
		if r.table.Dates[i].Weekday() == time.Sunday {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil
	}

	var epochs []int
	for idx := anchor; idx < n; idx += RebalanceIntervalDays {
		for j := idx; j < n && j < idx+RebalanceIntervalDays; j++ {
			if r.table.Dates[j].Weekday() == time.Sunday {
				epochs = append(epochs, j)
				break
			}
		}
	}
	return epochs
}

func (r *Rebalancer) computeWeights(idx, lookback int, policy AllocationPolicy) []float64 {
	start := idx - lookback
	if start < 0 {
		start = 0
	}
	window := r.table.Returns[start:idx]
	return policy.ComputeWeights(window, lookback)
}

func dot(weights, returns []float64) float64 {
	var sum float64
	for i := range weights {
		if i < len(returns) {
			sum += weights[i] * returns[i]
		}
	}
	return sum
}
