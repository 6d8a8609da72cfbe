package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes trades to a CSV file
func (r *DefaultCSVReporter) WriteTradesCSV(trades []types.Trade, path string) error {
	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Period",
		"Direction",
		"Entry_Time",
		"Exit_Time",
		"PnL_Pips",
		"Win_Loss",
	}); err != nil {
		return err
	}

	for _, trade := range trades {
		winLoss := "WIN"
		if trade.PnL < 0 {
			winLoss = "LOSS"
		}
		record := []string{
			strconv.Itoa(trade.Period),
			DirectionLabel(trade.Direction),
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			fmt.Sprintf("%.1f", trade.PnL),
			winLoss,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// DirectionLabel renders a trade direction as text
func DirectionLabel(direction int) string {
	if direction < 0 {
		return "SHORT"
	}
	return "LONG"
}

// WriteCandidatesCSV writes grid search results to a CSV file
func (r *DefaultCSVReporter) WriteCandidatesCSV(results []backtest.CandidateResult, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Window",
		"StdDev",
		"Total_Trades",
		"Total_PnL_Pips",
		"Win_Rate_%",
		"Max_Drawdown_Pips",
		"Linearity_Score",
		"Error",
	}); err != nil {
		return err
	}

	for _, res := range results {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		record := []string{
			strconv.Itoa(res.Window),
			fmt.Sprintf("%.2f", res.StdDev),
			strconv.Itoa(res.TotalTrades),
			fmt.Sprintf("%.1f", res.TotalPnL),
			fmt.Sprintf("%.1f", res.WinRate),
			fmt.Sprintf("%.1f", res.MaxDrawdown),
			fmt.Sprintf("%.4f", res.LinearityScore),
			errMsg,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// WriteBalanceCSV writes a balance series to a CSV file, one row per
// observation. The format round-trips through the returns builder.
func WriteBalanceCSV(series types.BalanceSeries, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "balance"}); err != nil {
		return err
	}
	for i := range series.Dates {
		record := []string{
			series.Dates[i].Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(series.Balances[i], 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// ReadBalanceCSV loads a balance series written by WriteBalanceCSV. The
// strategy name is derived from the file name.
func ReadBalanceCSV(path string) (string, types.BalanceSeries, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return name, types.BalanceSeries{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return name, types.BalanceSeries{}, err
	}
	if len(records) < 2 {
		return name, types.BalanceSeries{}, fmt.Errorf("balance file %s has no data rows", path)
	}

	var series types.BalanceSeries
	for i, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		ts, err := time.Parse("2006-01-02 15:04:05", record[0])
		if err != nil {
			return name, types.BalanceSeries{}, fmt.Errorf("bad timestamp at row %d: %w", i+2, err)
		}
		bal, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return name, types.BalanceSeries{}, fmt.Errorf("bad balance at row %d: %w", i+2, err)
		}
		series.Dates = append(series.Dates, ts)
		series.Balances = append(series.Balances, bal)
	}
	return name, series, nil
}
