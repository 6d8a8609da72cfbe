package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2024, 3, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestBuildReturnsTable_RejectsEmptyInput(t *testing.T) {
	_, err := BuildReturnsTable(map[string]types.BalanceSeries{})
	assert.Error(t, err)
}

func TestBuildReturnsTable_SortsStrategyColumns(t *testing.T) {
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"eurusd": {Dates: []time.Time{day(1)}, Balances: []float64{100}},
		"audjpy": {Dates: []time.Time{day(1)}, Balances: []float64{200}},
		"gbpchf": {Dates: []time.Time{day(1)}, Balances: []float64{300}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"audjpy", "eurusd", "gbpchf"}, table.Strategies)
}

func TestBuildReturnsTable_LastObservationOfDayWins(t *testing.T) {
	morning := day(1).Add(9 * time.Hour)
	evening := day(1).Add(21 * time.Hour)

	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"s": {
			Dates:    []time.Time{morning, evening, day(2)},
			Balances: []float64{100, 110, 120},
		},
	})

	require.NoError(t, err)
	require.Equal(t, 2, table.Days())
	assert.Equal(t, 110.0, table.Balances[0][0])
	assert.Equal(t, 120.0, table.Balances[1][0])
}

func TestBuildReturnsTable_ForwardFillsGapsOnContinuousIndex(t *testing.T) {
	// Observations on days 1 and 4 only; the index still covers days
	// 2 and 3, carrying the last balance forward.
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"s": {
			Dates:    []time.Time{day(1), day(4)},
			Balances: []float64{100, 140},
		},
	})

	require.NoError(t, err)
	require.Equal(t, 4, table.Days())
	assert.Equal(t, day(2), table.Dates[1])
	assert.Equal(t, 100.0, table.Balances[1][0])
	assert.Equal(t, 100.0, table.Balances[2][0])
	assert.Equal(t, 140.0, table.Balances[3][0])
	assert.Zero(t, table.Returns[1][0])
	assert.InDelta(t, 0.4, table.Returns[3][0], 1e-12)
}

func TestBuildReturnsTable_SeedsLateStartersWithSyntheticBase(t *testing.T) {
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"early": {Dates: []time.Time{day(1), day(2)}, Balances: []float64{100, 101}},
		"late":  {Dates: []time.Time{day(2)}, Balances: []float64{10100}},
	})

	require.NoError(t, err)
	require.Equal(t, 2, table.Days())
	assert.Equal(t, SyntheticBaseBalance, table.Balances[0][1])
	assert.InDelta(t, 0.01, table.Returns[1][1], 1e-12)
}

func TestBuildReturnsTable_FirstRowReturnsAreZero(t *testing.T) {
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"s": {Dates: []time.Time{day(1), day(2)}, Balances: []float64{100, 105}},
	})

	require.NoError(t, err)
	assert.Zero(t, table.Returns[0][0])
	assert.InDelta(t, 0.05, table.Returns[1][0], 1e-12)
}

func TestBuildReturnsTable_ZeroesOutlierReturns(t *testing.T) {
	// A 10x balance jump is a data glitch, not a 900% trading day.
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"s": {
			Dates:    []time.Time{day(1), day(2), day(3)},
			Balances: []float64{100, 1000, 1010},
		},
	})

	require.NoError(t, err)
	assert.Zero(t, table.Returns[1][0])
	assert.InDelta(t, 0.01, table.Returns[2][0], 1e-12)
}

func TestReturnsTable_ColumnLookup(t *testing.T) {
	table, err := BuildReturnsTable(map[string]types.BalanceSeries{
		"a": {Dates: []time.Time{day(1), day(2)}, Balances: []float64{100, 102}},
		"b": {Dates: []time.Time{day(1), day(2)}, Balances: []float64{100, 99}},
	})

	require.NoError(t, err)
	col := table.Column("b")
	require.Len(t, col, 2)
	assert.InDelta(t, -0.01, col[1], 1e-12)
	assert.Nil(t, table.Column("missing"))
}
