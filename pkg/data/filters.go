package data

import (
	"fmt"
	"time"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

// DefaultDataFilter implements DataFilter for common filtering operations
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByPeriod filters bars to the last N period
func (f *DefaultDataFilter) FilterByPeriod(data []types.Bar, period time.Duration) []types.Bar {
	if period <= 0 || len(data) == 0 {
		return data
	}

	// Find the cutoff timestamp (latest timestamp - period)
	latestTime := data[len(data)-1].Timestamp
	cutoffTime := latestTime.Add(-period)

	// Find the starting index where data is within the period
	startIdx := 0
	for i, bar := range data {
		if bar.Timestamp.After(cutoffTime) || bar.Timestamp.Equal(cutoffTime) {
			startIdx = i
			break
		}
	}

	// Return the filtered data in chronological order
	return data[startIdx:]
}

// FilterByDateRange filters bars to a specific date range
func (f *DefaultDataFilter) FilterByDateRange(data []types.Bar, start, end time.Time) []types.Bar {
	if len(data) == 0 {
		return data
	}

	var filtered []types.Bar

	for _, bar := range data {
		if (bar.Timestamp.After(start) || bar.Timestamp.Equal(start)) &&
			(bar.Timestamp.Before(end) || bar.Timestamp.Equal(end)) {
			filtered = append(filtered, bar)
		}
	}

	return filtered
}

// ValidateTimeSequence ensures bars are in chronological order
func (f *DefaultDataFilter) ValidateTimeSequence(data []types.Bar) error {
	if len(data) <= 1 {
		return nil // Single item or empty is always valid
	}

	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.RFC3339), data[i-1].Timestamp.Format(time.RFC3339))
		}

		// Check for duplicate timestamps
		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, data[i].Timestamp.Format(time.RFC3339))
		}
	}

	return nil
}

// SortByTimestamp sorts bars by timestamp (ascending order)
func (f *DefaultDataFilter) SortByTimestamp(data []types.Bar) []types.Bar {
	if len(data) <= 1 {
		return data
	}

	// Create a copy to avoid modifying original
	sorted := make([]types.Bar, len(data))
	copy(sorted, data)

	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Timestamp.After(sorted[j].Timestamp) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return sorted
}

// RemoveDuplicates removes duplicate timestamps, keeping the first occurrence
func (f *DefaultDataFilter) RemoveDuplicates(data []types.Bar) []types.Bar {
	if len(data) <= 1 {
		return data
	}

	var filtered []types.Bar
	seen := make(map[int64]bool)

	for _, bar := range data {
		timestamp := bar.Timestamp.UnixMilli()
		if !seen[timestamp] {
			seen[timestamp] = true
			filtered = append(filtered, bar)
		}
	}

	return filtered
}

// FilterOutliers removes bars whose mid price jumps unrealistically from
// the previous bar (basic outlier detection)
func (f *DefaultDataFilter) FilterOutliers(data []types.Bar, maxPercentChange float64) []types.Bar {
	if len(data) <= 1 || maxPercentChange <= 0 {
		return data
	}

	var filtered []types.Bar

	for i, bar := range data {
		if i == 0 {
			// Always include first bar
			filtered = append(filtered, bar)
			continue
		}

		prevMid := data[i-1].Mid

		// Calculate percentage change from previous mid to current mid
		percentChange := ((bar.Mid - prevMid) / prevMid) * 100

		// If change is within acceptable range, include the bar
		if percentChange <= maxPercentChange && percentChange >= -maxPercentChange {
			filtered = append(filtered, bar)
		}
		// Otherwise skip this bar (outlier)
	}

	return filtered
}
