package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	// SyntheticBaseBalance seeds strategies that have no observation at
	// the start of the combined date index.
	SyntheticBaseBalance = 10000.0

	// OutlierReturnThreshold clips data glitches: daily returns beyond
	// +/-50% are replaced with zero.
	OutlierReturnThreshold = 0.5
)

// ReturnsTable holds per-strategy daily returns aligned on one common,
// unique, sorted date index. Rows are days, columns are strategies.
type ReturnsTable struct {
	Dates      []time.Time
	Strategies []string
	Returns    [][]float64 // [day][strategy]
	Balances   [][]float64 // [day][strategy], after alignment
}

// Days returns the number of rows in the table.
func (t *ReturnsTable) Days() int {
	return len(t.Returns)
}

// Column returns the named strategy's return series, or nil when the
// strategy is not in the table.
func (t *ReturnsTable) Column(strategy string) []float64 {
	for i, name := range t.Strategies {
		if name == strategy {
			return column(t.Returns, i)
		}
	}
	return nil
}

// BuildReturnsTable aligns per-strategy balance series on a common
// daily date index: balances are resampled to one observation per day
// (last wins), outer-joined, forward-filled, and seeded with the
// synthetic base balance where a strategy has no prior observation.
// Daily returns are percentage changes with the first row zero and
// outliers beyond the threshold replaced with zero.
func BuildReturnsTable(series map[string]types.BalanceSeries) (*ReturnsTable, error) {
	if len(series) == 0 {
		return nil, errors.NewValidationError("portfolio", "returns", "no strategy series provided")
	}

	// Deterministic column order.
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	// One balance per strategy per calendar day, last observation wins.
	perDay := make([]map[time.Time]float64, len(names))
	dateSet := make(map[time.Time]struct{})
	for i, name := range names {
		s := series[name]
		perDay[i] = make(map[time.Time]float64, len(s.Dates))
		for j, d := range s.Dates {
			day := truncateToDay(d)
			perDay[i][day] = s.Balances[j]
			dateSet[day] = struct{}{}
		}
	}
	if len(dateSet) == 0 {
		return nil, errors.NewValidationError("portfolio", "returns", "strategy series contain no dated observations")
	}

	// Continuous daily index over the union of observed dates, so index
	// gaps never hide between rebalance epochs.
	first, last := boundsOf(dateSet)
	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	nDays := len(dates)
	balances := make([][]float64, nDays)
	for d := range balances {
		balances[d] = make([]float64, len(names))
	}

	for i := range names {
		prev := math.NaN()
		for d, day := range dates {
			if v, ok := perDay[i][day]; ok {
				prev = v
			}
			if math.IsNaN(prev) && d == 0 {
				// No observation yet: start from the synthetic base.
				prev = SyntheticBaseBalance
			}
			balances[d][i] = prev
		}
	}

	returns := make([][]float64, nDays)
	for d := range returns {
		returns[d] = make([]float64, len(names))
		if d == 0 {
			continue
		}
		for i := range names {
			prev := balances[d-1][i]
			if prev == 0 {
				continue
			}
			r := balances[d][i]/prev - 1
			if r > OutlierReturnThreshold || r < -OutlierReturnThreshold {
				r = 0
			}
			returns[d][i] = r
		}
	}

	return &ReturnsTable{
		Dates:      dates,
		Strategies: names,
		Returns:    returns,
		Balances:   balances,
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func boundsOf(dateSet map[time.Time]struct{}) (time.Time, time.Time) {
	var first, last time.Time
	started := false
	for d := range dateSet {
		if !started || d.Before(first) {
			first = d
		}
		if !started || d.After(last) {
			last = d
		}
		started = true
	}
	return first, last
}
