package reporting

import (
	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/internal/portfolio"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// Package reporting provides output generation for backtest results

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputSummary(summary backtest.Summary, symbol string)
	OutputCandidates(results []backtest.CandidateResult, limit int)
	OutputWalkForward(result *backtest.WalkForwardResult)
	OutputSweep(results []portfolio.SweepResult, limit int)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(trades []types.Trade, path string) error
	WriteCandidatesCSV(results []backtest.CandidateResult, path string) error
	WriteWalkForwardXLSX(result *backtest.WalkForwardResult, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(symbol, interval string) string
	EnsureDirectoryExists(path string) error
}
