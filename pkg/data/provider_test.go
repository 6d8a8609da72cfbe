package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrailingPeriod(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"30D", 30 * 24 * time.Hour, true},
		{"180days", 180 * 24 * time.Hour, true},
		{" 14d ", 14 * 24 * time.Hour, true},
		{"168h", 168 * time.Hour, true},
		{"d", 0, false},
		{"0d", 0, false},
		{"-3d", 0, false},
		{"soon", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseTrailingPeriod(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestConvertIntervalToMinutes(t *testing.T) {
	locator := NewDefaultFileLocator()

	assert.Equal(t, "5", locator.ConvertIntervalToMinutes("5m"))
	assert.Equal(t, "60", locator.ConvertIntervalToMinutes("1h"))
	assert.Equal(t, "240", locator.ConvertIntervalToMinutes("4h"))
	assert.Equal(t, "1440", locator.ConvertIntervalToMinutes("1d"))
	assert.Equal(t, "15", locator.ConvertIntervalToMinutes("15"))
	assert.Equal(t, "junk", locator.ConvertIntervalToMinutes("junk"))
}

func TestFindDataFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "dukascopy", "EURUSD", "1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,bid,ask\n"), 0o644))

	locator := NewDefaultFileLocator()

	// Explicit source, lowercase symbol and interval unit all resolve.
	assert.Equal(t, path, locator.FindDataFile(root, "dukascopy", "eurusd", "1m"))
	// Source omitted: known sources are probed in order.
	assert.Equal(t, path, locator.FindDataFile(root, "", "EURUSD", "1m"))
	// Nothing on disk yields an empty path, not a guess.
	assert.Empty(t, locator.FindDataFile(root, "bybit", "GBPUSD", "5m"))
}

func TestDataManager_LoadsAndCaches(t *testing.T) {
	path := writeCSV(t, `time,bid,ask
2024-03-01 00:00:00,1.10000,1.10010
2024-03-01 00:01:00,1.10005,1.10015
2024-03-01 00:02:00,1.10010,1.10020
`)
	manager := NewDataManager()

	bars, err := manager.LoadHistoricalData(path)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	require.NoError(t, manager.ValidateData(bars))

	trailing := manager.FilterDataByPeriod(bars, time.Minute)
	assert.Len(t, trailing, 2)
}
