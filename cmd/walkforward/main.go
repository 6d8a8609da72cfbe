package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/internal/logger"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	datamanager "github.com/edocame/bollinger-backtest/pkg/data"
	"github.com/edocame/bollinger-backtest/pkg/reporting"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	AppName    = "Bollinger Walk-Forward"
	AppVersion = "1.0.0"

	// Default walk-forward schedule
	DefaultLookbackDays = 30
	DefaultIntervalDays = 7
	DefaultBarsPerDay   = 1440

	// Default training grid
	DefaultWindowStart = 500
	DefaultWindowStop  = 4000
	DefaultWindowStep  = 500
	DefaultStdStart    = 1.0
	DefaultStdStop     = 3.0
	DefaultStdStep     = 0.25

	DefaultFridayCloseRows = 15
	DefaultDataRoot        = "data"
)

func main() {
	var (
		dataFile     = flag.String("data", "", "Bid/ask CSV file to evaluate")
		symbol       = flag.String("symbol", "EURUSD", "Symbol name for reports")
		interval     = flag.String("interval", "1m", "Bar interval (for data file lookup)")
		dataRoot     = flag.String("data-root", DefaultDataRoot, "Root directory for data files")
		source       = flag.String("source", "", "Data source under the data root, or clickhouse")
		lookbackDays = flag.Int("lookback-days", DefaultLookbackDays, "Training window in days")
		intervalDays = flag.Int("interval-days", DefaultIntervalDays, "Trading window in days")
		barsPerDay   = flag.Int("bars-per-day", DefaultBarsPerDay, "Bars per calendar day")
		windowStart  = flag.Int("window-start", DefaultWindowStart, "Grid window start (inclusive)")
		windowStop   = flag.Int("window-stop", DefaultWindowStop, "Grid window stop (inclusive)")
		windowStep   = flag.Int("window-step", DefaultWindowStep, "Grid window step")
		stdStart     = flag.Float64("std-start", DefaultStdStart, "Grid std multiplier start (inclusive)")
		stdStop      = flag.Float64("std-stop", DefaultStdStop, "Grid std multiplier stop (inclusive)")
		stdStep      = flag.Float64("std-step", DefaultStdStep, "Grid std multiplier step")
		workers      = flag.Int("workers", runtime.NumCPU(), "Parallel candidate workers")
		fridayRows   = flag.Int("friday-rows", DefaultFridayCloseRows, "Rows flagged at the end of each Friday")
		scoreBy      = flag.String("score-by", "pnl", "Training ranking statistic: pnl or linearity")
		outputDir    = flag.String("output", "", "Output directory (default results/<symbol>_<interval>)")
		consoleOnly  = flag.Bool("console-only", false, "Skip CSV/Excel output")
		balanceOut   = flag.String("balance-out", "", "Write a daily balance CSV for portfolio runs")
		metricsAddr  = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
		envFile      = flag.String("env", ".env", "Environment file to load")
		showVersion  = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	printHeader()
	loadEnvironment(*envFile)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	score := backtest.ScoreTotalPnL
	if strings.EqualFold(*scoreBy, "linearity") {
		score = backtest.ScoreLinearity
	}

	bars, err := loadBars(*dataFile, *dataRoot, *source, *symbol, *interval)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	wfLogger, err := logger.NewLogger(fmt.Sprintf("walkforward_%s", strings.ToLower(*symbol)))
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}
	defer wfLogger.Close()

	cfg := backtest.WalkForwardConfig{
		LookbackDays: *lookbackDays,
		IntervalDays: *intervalDays,
		BarsPerDay:   *barsPerDay,
		Grid: backtest.GridConfig{
			WindowStart: *windowStart,
			WindowStop:  *windowStop,
			WindowStep:  *windowStep,
			StdStart:    *stdStart,
			StdStop:     *stdStop,
			StdStep:     *stdStep,
			Workers:     *workers,
			ScoreBy:     score,
		},
		FridayCloseRows: *fridayRows,
	}

	result, err := backtest.RunWalkForward(bars, cfg, wfLogger)
	if err != nil {
		log.Fatalf("❌ Walk-forward error: %v", err)
	}

	reporting.OutputWalkForward(result)

	if !*consoleOnly {
		dir := *outputDir
		if dir == "" {
			dir = reporting.DefaultOutputDir(*symbol, *interval)
		}

		reporter := reporting.NewDefaultCSVReporter()
		tradesPath := filepath.Join(dir, "wf_trades.csv")
		if err := reporter.WriteTradesCSV(result.CombinedTrades, tradesPath); err != nil {
			log.Fatalf("❌ Failed to write trades: %v", err)
		}

		xlsxPath := filepath.Join(dir, "wf_report.xlsx")
		if err := reporting.WriteWalkForwardXLSX(result, xlsxPath); err != nil {
			log.Fatalf("❌ Failed to write Excel report: %v", err)
		}

		fmt.Printf("\n💾 Results written to %s and %s\n", tradesPath, xlsxPath)
	}

	if *balanceOut != "" {
		series := balanceSeries(result.CombinedTrades)
		if err := reporting.WriteBalanceCSV(series, *balanceOut); err != nil {
			log.Fatalf("❌ Failed to write balance series: %v", err)
		}
		fmt.Printf("💾 Balance series written to %s\n", *balanceOut)
	}
}

// balanceSeries converts the combined trade list into a cumulative
// balance series keyed by exit time, ready for the portfolio builder
func balanceSeries(trades []types.Trade) types.BalanceSeries {
	var series types.BalanceSeries
	balance := 0.0
	for _, trade := range trades {
		balance += trade.PnL
		series.Dates = append(series.Dates, trade.ExitTime)
		series.Balances = append(series.Balances, balance)
	}
	return series
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️  Metrics server stopped: %v", err)
	}
}

func loadBars(dataFile, dataRoot, source, symbol, interval string) ([]types.Bar, error) {
	if dataFile == "" && strings.EqualFold(source, "clickhouse") {
		return datamanager.LoadFromClickHouse(context.Background(), symbol)
	}
	if dataFile == "" {
		dataFile = datamanager.FindDataFile(dataRoot, source, symbol, interval)
		if dataFile == "" {
			return nil, fmt.Errorf("no data file found for %s %s under %s", symbol, interval, dataRoot)
		}
	}
	return datamanager.LoadHistoricalData(dataFile)
}
