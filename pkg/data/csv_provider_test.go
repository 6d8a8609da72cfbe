package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVProvider_LoadData(t *testing.T) {
	path := writeCSV(t, `time,bid,ask
2024-03-01 00:00:00,1.10000,1.10010
2024-03-01 00:01:00,1.10005,1.10015
`)

	bars, err := NewCSVProvider().LoadData(path)

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 1.10000, bars[0].Bid)
	assert.Equal(t, 1.10010, bars[0].Ask)
	assert.InDelta(t, 1.10005, bars[0].Mid, 1e-12)
}

func TestCSVProvider_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `time,bid,ask
2024-03-01 00:00:00,1.10000,1.10010
not-a-timestamp,1.10000,1.10010
2024-03-01 00:02:00,abc,1.10010
2024-03-01 00:03:00,-1.0,1.10010
2024-03-01 00:04:00,1.10020,1.10010
2024-03-01 00:05:00,1.10005,1.10015
`)

	bars, err := NewCSVProvider().LoadData(path)

	require.NoError(t, err)
	// Bad timestamp, bad bid, negative price and crossed quote are all
	// skipped.
	require.Len(t, bars, 2)
	assert.Equal(t, 1.10000, bars[0].Bid)
	assert.Equal(t, 1.10005, bars[1].Bid)
}

func TestCSVProvider_GeneratesSampleDataWhenFileMissing(t *testing.T) {
	bars, err := NewCSVProvider().LoadData(filepath.Join(t.TempDir(), "missing.csv"))

	require.NoError(t, err)
	require.NotEmpty(t, bars)
	assert.NoError(t, NewCSVProvider().ValidateData(bars))
}

func TestCSVProvider_DukascopyFormat(t *testing.T) {
	path := writeCSV(t, `time,ask,bid
2024-03-01 00:00:00.000,1.10010,1.10000
`)

	bars, err := NewCSVProviderWithFormat(DukascopyCSVFormat).LoadData(path)

	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.10000, bars[0].Bid)
	assert.Equal(t, 1.10010, bars[0].Ask)
}

func TestCSVProvider_ValidateData(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	good := []types.Bar{
		{Timestamp: base, Bid: 1.0, Ask: 1.0001, Mid: 1.00005},
		{Timestamp: base.Add(time.Minute), Bid: 1.0, Ask: 1.0001, Mid: 1.00005},
	}
	provider := NewCSVProvider()

	assert.NoError(t, provider.ValidateData(good))
	assert.Error(t, provider.ValidateData(nil))

	crossed := []types.Bar{{Timestamp: base, Bid: 1.0002, Ask: 1.0001}}
	assert.Error(t, provider.ValidateData(crossed))

	backwards := []types.Bar{
		{Timestamp: base.Add(time.Minute), Bid: 1.0, Ask: 1.0001},
		{Timestamp: base, Bid: 1.0, Ask: 1.0001},
	}
	assert.Error(t, provider.ValidateData(backwards))
}
