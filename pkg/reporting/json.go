package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edocame/bollinger-backtest/internal/backtest"
)

// BestCandidate is the JSON document written after a grid search: the
// winning parameters plus the stats that picked them.
type BestCandidate struct {
	Symbol string  `json:"symbol"`
	Window int     `json:"window"`
	StdDev float64 `json:"std_dev"`

	TotalTrades    int     `json:"total_trades"`
	TotalPnL       float64 `json:"total_pnl_pips"`
	WinRate        float64 `json:"win_rate_pct"`
	MaxDrawdown    float64 `json:"max_drawdown_pips"`
	LinearityScore float64 `json:"linearity_score"`
}

// NewBestCandidate converts the top grid search result into the JSON
// document shape
func NewBestCandidate(symbol string, res backtest.CandidateResult) BestCandidate {
	return BestCandidate{
		Symbol:         symbol,
		Window:         res.Window,
		StdDev:         res.StdDev,
		TotalTrades:    res.TotalTrades,
		TotalPnL:       res.TotalPnL,
		WinRate:        res.WinRate,
		MaxDrawdown:    res.MaxDrawdown,
		LinearityScore: res.LinearityScore,
	}
}

// PrintBestCandidate prints the winning parameters as JSON to console
func PrintBestCandidate(best BestCandidate) {
	data, _ := json.MarshalIndent(best, "", "  ")
	fmt.Println(string(data))
}

// WriteBestCandidateJSON writes the winning parameters to a JSON file
func WriteBestCandidateJSON(best BestCandidate, path string) error {
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return err
	}

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}
