package data

import (
	"time"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

// DataProvider interface for loading historical bid/ask data from various sources
type DataProvider interface {
	// LoadData loads historical bars from the specified source
	LoadData(source string) ([]types.Bar, error)

	// ValidateData validates the integrity of the loaded bars
	ValidateData(data []types.Bar) error

	// GetName returns the name of the data provider
	GetName() string
}

// DataCache interface for caching loaded bars
type DataCache interface {
	// Get retrieves bars from cache if available
	Get(key string) ([]types.Bar, bool)

	// Set stores bars in cache
	Set(key string, data []types.Bar)

	// Clear removes all cached data
	Clear()

	// Size returns the number of cached entries
	Size() int
}

// DataFilter interface for filtering and transforming bars
type DataFilter interface {
	// FilterByPeriod filters bars to the last N period
	FilterByPeriod(data []types.Bar, period time.Duration) []types.Bar

	// FilterByDateRange filters bars to a specific date range
	FilterByDateRange(data []types.Bar, start, end time.Time) []types.Bar

	// ValidateTimeSequence ensures bars are in chronological order
	ValidateTimeSequence(data []types.Bar) error
}

// CSVColumnMapping defines the column positions for different CSV formats
type CSVColumnMapping struct {
	TimestampCol int
	BidCol       int
	AskCol       int
	MinColumns   int
	DateFormat   string
}

// Predefined CSV formats
var (
	// DefaultCSVFormat matches the downloader output: time,bid,ask
	DefaultCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		BidCol:       1,
		AskCol:       2,
		MinColumns:   3,
		DateFormat:   "2006-01-02 15:04:05",
	}

	// DukascopyCSVFormat matches tick exports where ask precedes bid and
	// timestamps carry milliseconds
	DukascopyCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		BidCol:       2,
		AskCol:       1,
		MinColumns:   3,
		DateFormat:   "2006-01-02 15:04:05.000",
	}
)

// FileLocator interface for finding data files
type FileLocator interface {
	// FindDataFile attempts to locate data files for a specific source and symbol
	FindDataFile(dataRoot, source, symbol, interval string) string

	// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers
	ConvertIntervalToMinutes(interval string) string
}
