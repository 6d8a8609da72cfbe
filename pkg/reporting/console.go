package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/internal/portfolio"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputSummary prints a single backtest summary to console
func (r *DefaultConsoleReporter) OutputSummary(summary backtest.Summary, symbol string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("📊 Backtest Results %s", symbol))

	t.AppendRows([]table.Row{
		{"Total Trades", summary.TotalTrades},
		{"Total PnL (pips)", fmt.Sprintf("%.1f", summary.TotalPnL)},
		{"Average Trade", fmt.Sprintf("%.2f", summary.AverageTrade)},
		{"Win Rate", fmt.Sprintf("%.1f%%", summary.WinRate)},
		{"Winning Trades", summary.WinningTrades},
		{"Losing Trades", summary.LosingTrades},
		{"Best Trade", fmt.Sprintf("%.1f", summary.BestTrade)},
		{"Worst Trade", fmt.Sprintf("%.1f", summary.WorstTrade)},
		{"Max Drawdown (pips)", fmt.Sprintf("%.1f", summary.MaxDrawdown)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 14, Align: text.AlignRight},
	})
	t.Render()
}

// OutputCandidates prints the top grid search candidates to console
func (r *DefaultConsoleReporter) OutputCandidates(results []backtest.CandidateResult, limit int) {
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("🔍 Grid Search Results")
	t.AppendHeader(table.Row{"#", "Window", "StdDev", "Trades", "PnL (pips)", "Win Rate", "Max DD", "Linearity"})

	for i, res := range results[:limit] {
		status := fmt.Sprintf("%.3f", res.LinearityScore)
		if res.Err != nil {
			status = "error"
		}
		t.AppendRow(table.Row{
			i + 1,
			res.Window,
			fmt.Sprintf("%.2f", res.StdDev),
			res.TotalTrades,
			fmt.Sprintf("%.1f", res.TotalPnL),
			fmt.Sprintf("%.1f%%", res.WinRate),
			fmt.Sprintf("%.1f", res.MaxDrawdown),
			status,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// OutputWalkForward prints a walk-forward evaluation to console, one
// row per period plus the combined totals
func (r *DefaultConsoleReporter) OutputWalkForward(result *backtest.WalkForwardResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("📈 Walk-Forward Periods")
	t.AppendHeader(table.Row{"Period", "Window", "StdDev", "Train PnL", "Trades", "PnL (pips)", "Win Rate"})

	for _, p := range result.Periods {
		t.AppendRow(table.Row{
			p.Period,
			p.Window,
			fmt.Sprintf("%.2f", p.StdDev),
			fmt.Sprintf("%.1f", p.TrainPnL),
			p.Summary.TotalTrades,
			fmt.Sprintf("%.1f", p.Summary.TotalPnL),
			fmt.Sprintf("%.1f%%", p.Summary.WinRate),
		})
	}
	t.AppendFooter(table.Row{
		"TOTAL", "", "", "",
		result.TotalTrades,
		fmt.Sprintf("%.1f", result.TotalPnL),
		fmt.Sprintf("%.1f%%", result.WinRate),
	})
	t.Render()

	fmt.Printf("\nPeriods attempted: %d | Avg PnL per period: %.1f pips | Max drawdown: %.1f pips\n",
		result.TotalPeriods, result.AvgPnLPerPeriod, result.MaxDrawdown)
}

// OutputSweep prints the portfolio policy sweep ranked best first
func (r *DefaultConsoleReporter) OutputSweep(results []portfolio.SweepResult, limit int) {
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("💼 Portfolio Policy Sweep")
	t.AppendHeader(table.Row{"#", "Policy", "Lookback", "Final Value", "Total Return", "Sharpe", "Max DD", "Ann. Vol"})

	for i, res := range results[:limit] {
		if res.Err != nil {
			t.AppendRow(table.Row{i + 1, res.Policy, res.Lookback, "error", "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			i + 1,
			res.Policy,
			res.Lookback,
			fmt.Sprintf("%.4f", res.FinalValue),
			fmt.Sprintf("%.2f%%", res.Metrics.TotalReturn*100),
			fmt.Sprintf("%.2f", res.Metrics.SharpeRatio),
			fmt.Sprintf("%.2f%%", res.Metrics.MaxDrawdown*100),
			fmt.Sprintf("%.2f%%", res.Metrics.AnnualizedVol*100),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMin: 18, Align: text.AlignLeft},
	})
	t.Render()
}

// Package-level convenience functions used by the CLI entrypoints

// OutputSummary prints a backtest summary with the default reporter
func OutputSummary(summary backtest.Summary, symbol string) {
	NewDefaultConsoleReporter().OutputSummary(summary, symbol)
}

// OutputCandidates prints grid search results with the default reporter
func OutputCandidates(results []backtest.CandidateResult, limit int) {
	NewDefaultConsoleReporter().OutputCandidates(results, limit)
}

// OutputWalkForward prints a walk-forward evaluation with the default reporter
func OutputWalkForward(result *backtest.WalkForwardResult) {
	NewDefaultConsoleReporter().OutputWalkForward(result)
}

// OutputSweep prints a policy sweep with the default reporter
func OutputSweep(results []portfolio.SweepResult, limit int) {
	NewDefaultConsoleReporter().OutputSweep(results, limit)
}
