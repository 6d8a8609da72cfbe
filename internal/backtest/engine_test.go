package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edocame/bollinger-backtest/internal/indicators"
)

// bandedSeries builds a series with fixed bands (lower 1, middle 2,
// upper 3) and a half-spread of 0.05 around the given mid prices.
// Timestamps are minute bars on a Monday so no Friday flags fire.
func bandedSeries(mids []float64) *indicators.BandSeries {
	return bandedSeriesAt(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), mids)
}

func bandedSeriesAt(start time.Time, mids []float64) *indicators.BandSeries {
	s := &indicators.BandSeries{}
	for i, mid := range mids {
		s.Timestamps = append(s.Timestamps, start.Add(time.Duration(i)*time.Minute))
		s.Bid = append(s.Bid, mid-0.05)
		s.Ask = append(s.Ask, mid+0.05)
		s.Mid = append(s.Mid, mid)
		s.Upper = append(s.Upper, 3.0)
		s.Middle = append(s.Middle, 2.0)
		s.Lower = append(s.Lower, 1.0)
	}
	return s
}

func TestEngine_LongRoundTrip(t *testing.T) {
	// Mid crosses below the lower band at index 1 (entry at ask[2]) and
	// above the middle band at index 3 (exit at bid[4]).
	series := bandedSeries([]float64{1.5, 0.5, 1.5, 2.5, 2.5, 2.4, 2.4, 2.4})

	engine, err := NewBacktestEngine(series)
	require.NoError(t, err)
	trades := engine.Run()

	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, 1, trade.Direction)
	assert.Equal(t, 2, trade.EntryIndex)
	assert.Equal(t, 4, trade.ExitIndex)
	// Bought at ask 1.55, sold at bid 2.45
	assert.InDelta(t, (2.45-1.55)*PipFactor, trade.PnL, 1e-6)
	assert.True(t, trade.EntryIndex < trade.ExitIndex)
}

func TestEngine_ShortRoundTrip(t *testing.T) {
	// Mid crosses above the upper band at index 1 (entry at bid[2]) and
	// below the middle band at index 3 (exit at ask[4]).
	series := bandedSeries([]float64{2.5, 3.5, 2.5, 1.5, 1.5, 1.6, 1.6, 1.6})

	engine, err := NewBacktestEngine(series)
	require.NoError(t, err)
	trades := engine.Run()

	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, -1, trade.Direction)
	assert.Equal(t, 2, trade.EntryIndex)
	assert.Equal(t, 4, trade.ExitIndex)
	// Sold at bid 2.45, covered at ask 1.55
	assert.InDelta(t, (2.45-1.55)*PipFactor, trade.PnL, 1e-6)
}

func TestEngine_EndOfDataForceClose(t *testing.T) {
	// Long entry with no reversion: the position closes at the last bid.
	series := bandedSeries([]float64{1.5, 0.5, 1.5, 1.5, 1.5, 1.5})

	engine, err := NewBacktestEngine(series)
	require.NoError(t, err)
	trades := engine.Run()

	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, 5, trade.ExitIndex)
	// Bought at ask 1.55, forced out at bid 1.45
	assert.InDelta(t, (1.45-1.55)*PipFactor, trade.PnL, 1e-6)
}

func TestEngine_FridayCloseAtOwnPrice(t *testing.T) {
	series := bandedSeries([]float64{1.5, 0.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5})

	flags := make([]bool, series.Len())
	flags[4] = true

	engine, err := NewBacktestEngine(series, WithFridayClose(flags))
	require.NoError(t, err)
	trades := engine.Run()

	require.Len(t, trades, 1)
	trade := trades[0]
	// Closed at the flagged bar's own bid, not the next bar's
	assert.Equal(t, 4, trade.ExitIndex)
	assert.InDelta(t, (1.45-1.55)*PipFactor, trade.PnL, 1e-6)
}

func TestEngine_NoEntryDuringFridayWindow(t *testing.T) {
	// The entry signal fires inside the flagged window and is ignored.
	series := bandedSeries([]float64{1.5, 0.5, 1.5, 1.5, 1.5, 1.5})

	flags := make([]bool, series.Len())
	flags[1] = true

	engine, err := NewBacktestEngine(series, WithFridayClose(flags))
	require.NoError(t, err)
	trades := engine.Run()

	assert.Empty(t, trades)
}

func TestEngine_ScanContinuesAfterFridayClose(t *testing.T) {
	// Close on the flagged bar, then a fresh entry afterwards.
	series := bandedSeries([]float64{1.5, 0.5, 1.5, 1.5, 1.5, 0.5, 1.5, 2.5, 2.5, 2.4})

	flags := make([]bool, series.Len())
	flags[3] = true

	engine, err := NewBacktestEngine(series, WithFridayClose(flags))
	require.NoError(t, err)
	trades := engine.Run()

	require.Len(t, trades, 2)
	assert.Equal(t, 3, trades[0].ExitIndex)
	// Second entry: cross below lower at index 5, entry at 6, exit
	// crossing middle at index 7 -> exit index 8
	assert.Equal(t, 6, trades[1].EntryIndex)
	assert.Equal(t, 8, trades[1].ExitIndex)
}

func TestEngine_RejectsNaNSeries(t *testing.T) {
	series := bandedSeries([]float64{1.5, 1.5, 1.5})
	series.Upper[1] = math.NaN()

	_, err := NewBacktestEngine(series)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing values")
}

func TestEngine_RejectsShortSeries(t *testing.T) {
	series := bandedSeries([]float64{1.5, 1.5})

	_, err := NewBacktestEngine(series)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough data")
}

func TestEngine_RejectsNilSeries(t *testing.T) {
	_, err := NewBacktestEngine(nil)
	assert.Error(t, err)
}

func TestFridayCloseFlags_LastRowsOfFriday(t *testing.T) {
	// 30 minute bars on a Friday followed by 5 on the Saturday.
	start := time.Date(2024, 3, 8, 20, 0, 0, 0, time.UTC) // a Friday
	var timestamps []time.Time
	for i := 0; i < 30; i++ {
		timestamps = append(timestamps, start.Add(time.Duration(i)*time.Minute))
	}
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		timestamps = append(timestamps, saturday.Add(time.Duration(i)*time.Minute))
	}

	flags := FridayCloseFlags(timestamps, 15)
	require.Len(t, flags, 35)

	for i := 0; i < 15; i++ {
		assert.False(t, flags[i], "row %d should not be flagged", i)
	}
	for i := 15; i < 30; i++ {
		assert.True(t, flags[i], "row %d should be flagged", i)
	}
	for i := 30; i < 35; i++ {
		assert.False(t, flags[i], "saturday row %d should not be flagged", i)
	}
}

func TestFridayCloseFlags_ShortFridayFullyFlagged(t *testing.T) {
	start := time.Date(2024, 3, 8, 23, 50, 0, 0, time.UTC)
	var timestamps []time.Time
	for i := 0; i < 5; i++ {
		timestamps = append(timestamps, start.Add(time.Duration(i)*time.Minute))
	}

	flags := FridayCloseFlags(timestamps, 15)
	for i := range flags {
		assert.True(t, flags[i])
	}
}

func TestFridayCloseFlags_NoFridays(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // a Monday
	var timestamps []time.Time
	for i := 0; i < 10; i++ {
		timestamps = append(timestamps, start.Add(time.Duration(i)*time.Minute))
	}

	flags := FridayCloseFlags(timestamps, 15)
	for i := range flags {
		assert.False(t, flags[i])
	}
}
