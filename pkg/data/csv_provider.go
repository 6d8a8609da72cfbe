package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

// CSVProvider implements DataProvider for bid/ask CSV files
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		format: DefaultCSVFormat,
	}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical bars from a CSV file
func (p *CSVProvider) LoadData(source string) ([]types.Bar, error) {
	return p.loadHistoricalDataWithFormat(source, p.format)
}

// loadHistoricalDataWithFormat loads bars with a specific CSV format
func (p *CSVProvider) loadHistoricalDataWithFormat(filename string, format CSVColumnMapping) ([]types.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		// If file doesn't exist, generate sample data
		if os.IsNotExist(err) {
			log.Println("⚠️  Historical data file not found, generating sample data...")
			return p.generateSampleData(), nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var data []types.Bar

	lineNum := 1 // Start from 1 since we already read header
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		// Check minimum columns based on format
		if len(record) < format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		// Parse timestamp with configurable format
		timestamp, err := time.Parse(format.DateFormat, record[format.TimestampCol])
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
			continue
		}

		bid, err := strconv.ParseFloat(record[format.BidCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid bid price '%s' at line %d, skipping: %v", record[format.BidCol], lineNum, err)
			continue
		}

		ask, err := strconv.ParseFloat(record[format.AskCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid ask price '%s' at line %d, skipping: %v", record[format.AskCol], lineNum, err)
			continue
		}

		// Basic data validation
		if bid <= 0 || ask <= 0 {
			log.Printf("⚠️ Invalid price data (negative or zero) at line %d, skipping", lineNum)
			continue
		}

		if ask < bid {
			log.Printf("⚠️ Ask price below bid at line %d, skipping", lineNum)
			continue
		}

		data = append(data, types.Bar{
			Timestamp: timestamp,
			Bid:       bid,
			Ask:       ask,
			Mid:       (bid + ask) / 2,
		})
	}

	return data, nil
}

// generateSampleData creates sample data for testing when no real data is available
func (p *CSVProvider) generateSampleData() []types.Bar {
	// Generate 60 days of minute bars
	data := make([]types.Bar, 60*24*60)
	startTime := time.Now().AddDate(0, -2, 0).Truncate(time.Minute)
	mid := 1.1000
	spread := 0.0001

	for i := range data {
		// Simulate a mean-reverting random walk
		randomWalk := (rand.Float64() - 0.5) * 0.0004
		pull := (1.1000 - mid) * 0.001
		mid += randomWalk + pull

		// Ensure price stays positive
		if mid < 0.5 {
			mid = 0.5
		}

		data[i] = types.Bar{
			Timestamp: startTime.Add(time.Duration(i) * time.Minute),
			Bid:       mid - spread/2,
			Ask:       mid + spread/2,
			Mid:       mid,
		}
	}

	return data
}

// ValidateData validates the integrity of loaded bars
func (p *CSVProvider) ValidateData(data []types.Bar) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, bar := range data {
		// Validate price data
		if bar.Bid <= 0 || bar.Ask <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}

		if bar.Ask < bar.Bid {
			return fmt.Errorf("invalid price data at index %d: ask (%.5f) cannot be less than bid (%.5f)",
				i, bar.Ask, bar.Bid)
		}

		// Validate timestamp sequence (should be in chronological order)
		if i > 0 && bar.Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}

	return nil
}
