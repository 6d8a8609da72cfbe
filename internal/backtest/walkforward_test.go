package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edocame/bollinger-backtest/internal/errors"
)

func wfGrid() GridConfig {
	return GridConfig{
		WindowStart: 3, WindowStop: 5, WindowStep: 2,
		StdStart: 0.5, StdStop: 1.0, StdStep: 0.5,
	}
}

func TestRunWalkForward_RejectsNonPositiveSchedule(t *testing.T) {
	_, err := RunWalkForward(oscillatingBars(1000), WalkForwardConfig{
		LookbackDays: 0, IntervalDays: 1, Grid: wfGrid(),
	}, nil)

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRunWalkForward_RejectsInsufficientHistory(t *testing.T) {
	_, err := RunWalkForward(oscillatingBars(100), WalkForwardConfig{
		LookbackDays: 1, IntervalDays: 1, BarsPerDay: 200, Grid: wfGrid(),
	}, nil)

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRunWalkForward_RollsTrainThenTradePeriods(t *testing.T) {
	bars := oscillatingBars(1000)
	cfg := WalkForwardConfig{
		LookbackDays: 1,
		IntervalDays: 1,
		BarsPerDay:   200,
		Grid:         wfGrid(),
	}

	result, err := RunWalkForward(bars, cfg, nil)

	require.NoError(t, err)
	// Starts at 200, 400 and 600; a start at 800 would leave no unseen
	// bar past its trading window, so three periods run.
	assert.Equal(t, 3, result.TotalPeriods)
	require.Len(t, result.Periods, 3)

	first := result.Periods[0]
	assert.Equal(t, 1, first.Period)
	assert.Equal(t, bars[0].Timestamp, first.TrainStart)
	assert.Equal(t, bars[199].Timestamp, first.TrainEnd)
	assert.Equal(t, bars[200].Timestamp, first.TradeStart)
	assert.Equal(t, bars[399].Timestamp, first.TradeEnd)

	total := 0
	for _, p := range result.Periods {
		assert.Greater(t, p.Window, 0)
		assert.Greater(t, p.Summary.TotalTrades, 0)
		total += len(p.Trades)
		for _, tr := range p.Trades {
			assert.Equal(t, p.Period, tr.Period)
		}
	}
	assert.Len(t, result.CombinedTrades, total)
	assert.Equal(t, total, result.TotalTrades)
	assert.InDelta(t, result.TotalPnL/3.0, result.AvgPnLPerPeriod, 1e-9)
}

func TestRunWalkForward_SkipsPeriodsWithoutUsableCandidates(t *testing.T) {
	grid := wfGrid()
	// Every candidate needs more usable rows than a training window
	// holds, so every period's sweep comes back empty-handed.
	grid.MinRows = 300

	result, err := RunWalkForward(oscillatingBars(1000), WalkForwardConfig{
		LookbackDays: 1,
		IntervalDays: 1,
		BarsPerDay:   200,
		Grid:         grid,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalPeriods)
	assert.Empty(t, result.Periods)
	assert.Empty(t, result.CombinedTrades)
	assert.Zero(t, result.TotalTrades)
	assert.Zero(t, result.AvgPnLPerPeriod)
}
