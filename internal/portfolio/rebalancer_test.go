package portfolio

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTable builds an aligned returns table with a continuous daily
// index starting at the given date. rows is [day][strategy].
func makeTable(start time.Time, rows [][]float64) *ReturnsTable {
	table := &ReturnsTable{Returns: rows}
	for i := range rows {
		table.Dates = append(table.Dates, start.AddDate(0, 0, i))
	}
	for i := 0; i < len(rows[0]); i++ {
		table.Strategies = append(table.Strategies, fmt.Sprintf("strategy%d", i))
	}
	return table
}

// constantRows repeats the same per-strategy daily returns for n days.
func constantRows(n int, returns ...float64) [][]float64 {
	rows := make([][]float64, n)
	for d := range rows {
		row := make([]float64, len(returns))
		copy(row, returns)
		rows[d] = row
	}
	return rows
}

// friday is a reference start date; day index 2 is the first Sunday.
var friday = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewRebalancer_RejectsEmptyTable(t *testing.T) {
	_, err := NewRebalancer(nil)
	assert.Error(t, err)

	_, err = NewRebalancer(&ReturnsTable{})
	assert.Error(t, err)
}

func TestRebalancer_RejectsBadRunArguments(t *testing.T) {
	reb, err := NewRebalancer(makeTable(friday, constantRows(30, 0.01)))
	require.NoError(t, err)

	_, err = reb.Run(7, nil)
	assert.Error(t, err)

	_, err = reb.Run(0, MomentumPolicy{})
	assert.Error(t, err)
}

func TestRebalancer_AnchorsEpochsOnSundays(t *testing.T) {
	reb, err := NewRebalancer(makeTable(friday, constantRows(30, 0.01)))
	require.NoError(t, err)

	result, err := reb.Run(7, MomentumPolicy{})

	require.NoError(t, err)
	// First Sunday at or past the lookback boundary is index 9, then
	// every seven days.
	require.Len(t, result.Epochs, 3)
	assert.Equal(t, []int{9, 16, 23}, []int{result.Epochs[0].Index, result.Epochs[1].Index, result.Epochs[2].Index})
	for _, epoch := range result.Epochs {
		assert.Equal(t, time.Sunday, epoch.Date.Weekday())
	}
}

func TestRebalancer_HoldsEqualWeightsWhenNoSundayExists(t *testing.T) {
	// Monday through Saturday only, so no Sunday anchors the schedule
	// and the portfolio holds a static equal-weight vector.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	reb, err := NewRebalancer(makeTable(monday, constantRows(6, 0.01)))
	require.NoError(t, err)

	result, err := reb.Run(5, MomentumPolicy{})

	require.NoError(t, err)
	assert.Empty(t, result.Epochs)
	require.Len(t, result.Values, 6)
	assert.InDelta(t, 1.01, result.Values[0], 1e-12)
	assert.InDelta(t, math.Pow(1.01, 6), result.FinalValue, 1e-12)
}

func TestRebalancer_FirstEpochWeightsApplyFromSimulationStart(t *testing.T) {
	// Strategy 0 returns +1% daily, strategy 1 is flat, so momentum puts
	// full weight on strategy 0. That weight must already be live on day
	// 0, nine days before the first Sunday epoch at index 9.
	reb, err := NewRebalancer(makeTable(friday, constantRows(30, 0.01, 0.0)))
	require.NoError(t, err)

	result, err := reb.Run(7, MomentumPolicy{})

	require.NoError(t, err)
	require.Len(t, result.Values, 30)
	assert.InDelta(t, 1.01, result.Values[0], 1e-12)
	assert.InDelta(t, math.Pow(1.01, 30), result.FinalValue, 1e-9)
}

func TestRebalancer_CompoundsReturnsBeforeFirstEpoch(t *testing.T) {
	// All the gains land on days 0 through 6, inside the lookback
	// window. They must still compound into the final value.
	rows := constantRows(30, 0.0)
	for d := 0; d < 7; d++ {
		rows[d][0] = 0.1
	}
	reb, err := NewRebalancer(makeTable(friday, rows))
	require.NoError(t, err)

	result, err := reb.Run(7, MomentumPolicy{})

	require.NoError(t, err)
	require.Len(t, result.Values, 30)
	assert.InDelta(t, math.Pow(1.1, 7), result.Values[6], 1e-9)
	assert.InDelta(t, math.Pow(1.1, 7), result.FinalValue, 1e-9)
}

func TestRebalancer_AllLosingStrategiesKeepValueFlat(t *testing.T) {
	// Both strategies lose every day, so momentum allocates to cash at
	// every epoch and the portfolio never moves off its base value.
	reb, err := NewRebalancer(makeTable(friday, constantRows(30, -0.01, -0.005)))
	require.NoError(t, err)

	result, err := reb.Run(7, MomentumPolicy{})

	require.NoError(t, err)
	require.NotEmpty(t, result.Epochs)
	for _, epoch := range result.Epochs {
		assert.Equal(t, []float64{0, 0}, epoch.Weights)
	}
	for _, v := range result.Values {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
	assert.InDelta(t, 1.0, result.FinalValue, 1e-12)
}

func TestRebalancer_ShrinksOversizedLookback(t *testing.T) {
	reb, err := NewRebalancer(makeTable(friday, constantRows(40, 0.01)))
	require.NoError(t, err)

	result, err := reb.Run(100, MomentumPolicy{})

	require.NoError(t, err)
	assert.Equal(t, MinLookbackDays, result.Lookback)
	assert.Len(t, result.Values, 40)
}

func TestRebalancer_FailsWhenTableShorterThanAnyLookback(t *testing.T) {
	reb, err := NewRebalancer(makeTable(friday, constantRows(4, 0.01)))
	require.NoError(t, err)

	_, err = reb.Run(100, MomentumPolicy{})
	assert.Error(t, err)
}
