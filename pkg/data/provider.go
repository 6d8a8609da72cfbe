package data

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

// DataManager combines all data operations in a convenient interface
type DataManager struct {
	provider DataProvider
	filter   DataFilter
	locator  FileLocator
}

// NewDataManager creates a new data manager with default components
func NewDataManager() *DataManager {
	return &DataManager{
		provider: NewCachedProvider(NewCSVProvider()),
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
	}
}

// NewDataManagerWithProvider creates a data manager with a custom provider
func NewDataManagerWithProvider(provider DataProvider) *DataManager {
	return &DataManager{
		provider: provider,
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
	}
}

// LoadHistoricalData loads bars from a file
func (dm *DataManager) LoadHistoricalData(filename string) ([]types.Bar, error) {
	return dm.provider.LoadData(filename)
}

// FilterDataByPeriod filters bars by time period
func (dm *DataManager) FilterDataByPeriod(data []types.Bar, period time.Duration) []types.Bar {
	return dm.filter.FilterByPeriod(data, period)
}

// FindDataFile locates data files
func (dm *DataManager) FindDataFile(dataRoot, source, symbol, interval string) string {
	return dm.locator.FindDataFile(dataRoot, source, symbol, interval)
}

// ConvertIntervalToMinutes converts interval to minutes
func (dm *DataManager) ConvertIntervalToMinutes(interval string) string {
	return dm.locator.ConvertIntervalToMinutes(interval)
}

// ValidateData validates loaded bars
func (dm *DataManager) ValidateData(data []types.Bar) error {
	return dm.provider.ValidateData(data)
}

// GetProvider returns the underlying data provider
func (dm *DataManager) GetProvider() DataProvider {
	return dm.provider
}

// GetFilter returns the data filter
func (dm *DataManager) GetFilter() DataFilter {
	return dm.filter
}

// GetLocator returns the file locator
func (dm *DataManager) GetLocator() FileLocator {
	return dm.locator
}

// ParseTrailingPeriod parses period strings like "7d", "30d", "180d"
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "days") {
		s = strings.TrimSuffix(s, "days") + "d"
	}
	if strings.HasSuffix(s, "d") {
		nStr := strings.TrimSuffix(s, "d")
		if nStr == "" {
			return 0, false
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	// allow raw durations too (e.g., 168h)
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	return 0, false
}

// DefaultDataManager provides a shared instance for the CLI entrypoints
var DefaultDataManager = NewDataManager()

// LoadHistoricalData - global convenience function
func LoadHistoricalData(filename string) ([]types.Bar, error) {
	return DefaultDataManager.LoadHistoricalData(filename)
}

// FilterDataByPeriod - global convenience function
func FilterDataByPeriod(data []types.Bar, period time.Duration) []types.Bar {
	return DefaultDataManager.FilterDataByPeriod(data, period)
}

// FindDataFile - global convenience function
func FindDataFile(dataRoot, source, symbol, interval string) string {
	return DefaultDataManager.FindDataFile(dataRoot, source, symbol, interval)
}

// LoadFromClickHouse loads all quotes for a symbol from the ClickHouse
// store configured in the environment
func LoadFromClickHouse(ctx context.Context, symbol string) ([]types.Bar, error) {
	provider, err := NewClickHouseProvider(ctx, DefaultClickHouseConfig())
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	bars, err := provider.LoadData(symbol)
	if err != nil {
		return nil, err
	}
	return bars, provider.ValidateData(bars)
}
