package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/internal/indicators"
	datamanager "github.com/edocame/bollinger-backtest/pkg/data"
	"github.com/edocame/bollinger-backtest/pkg/reporting"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	AppName    = "Bollinger Backtest"
	AppVersion = "1.0.0"

	// Default values
	DefaultWindow          = 2000
	DefaultStdDev          = 2.0
	DefaultFridayCloseRows = 15
	DefaultDataRoot        = "data"
)

func main() {
	var (
		dataFile    = flag.String("data", "", "Bid/ask CSV file to backtest")
		symbol      = flag.String("symbol", "EURUSD", "Symbol name for reports")
		interval    = flag.String("interval", "1m", "Bar interval (for data file lookup)")
		dataRoot    = flag.String("data-root", DefaultDataRoot, "Root directory for data files")
		source      = flag.String("source", "", "Data source under the data root, or clickhouse")
		window      = flag.Int("window", DefaultWindow, "Bollinger band window in bars")
		stdDev      = flag.Float64("std", DefaultStdDev, "Bollinger band standard deviation multiplier")
		fridayRows  = flag.Int("friday-rows", DefaultFridayCloseRows, "Rows flagged at the end of each Friday")
		period      = flag.String("period", "", "Trailing period filter (e.g. 30d, 180d)")
		outputDir   = flag.String("output", "", "Output directory (default results/<symbol>_<interval>)")
		consoleOnly = flag.Bool("console-only", false, "Skip CSV output")
		envFile     = flag.String("env", ".env", "Environment file to load")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	printHeader()
	loadEnvironment(*envFile)

	bars, err := loadBars(*dataFile, *dataRoot, *source, *symbol, *interval, *period)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	series := indicators.BollingerBands(bars, *window, *stdDev).Dropna()
	if series.Len() == 0 {
		log.Fatalf("❌ Not enough data for window %d", *window)
	}

	engine, err := backtest.NewBacktestEngine(series,
		backtest.WithFridayClose(backtest.FridayCloseFlags(series.Timestamps, *fridayRows)))
	if err != nil {
		log.Fatalf("❌ Engine error: %v", err)
	}

	engine.Run()
	reporting.OutputSummary(engine.Summary(), *symbol)

	if !*consoleOnly {
		dir := *outputDir
		if dir == "" {
			dir = reporting.DefaultOutputDir(*symbol, *interval)
		}
		tradesPath := filepath.Join(dir, "trades.csv")
		reporter := reporting.NewDefaultCSVReporter()
		if err := reporter.WriteTradesCSV(engine.Trades(), tradesPath); err != nil {
			log.Fatalf("❌ Failed to write trades: %v", err)
		}
		fmt.Printf("\n💾 Trades written to %s\n", tradesPath)
	}
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

func loadBars(dataFile, dataRoot, source, symbol, interval, period string) ([]types.Bar, error) {
	var bars []types.Bar
	var err error

	if dataFile == "" && strings.EqualFold(source, "clickhouse") {
		bars, err = datamanager.LoadFromClickHouse(context.Background(), symbol)
	} else {
		if dataFile == "" {
			dataFile = datamanager.FindDataFile(dataRoot, source, symbol, interval)
			if dataFile == "" {
				return nil, fmt.Errorf("no data file found for %s %s under %s", symbol, interval, dataRoot)
			}
		}
		bars, err = datamanager.LoadHistoricalData(dataFile)
	}
	if err != nil {
		return nil, err
	}

	if period != "" {
		d, ok := datamanager.ParseTrailingPeriod(period)
		if !ok {
			return nil, fmt.Errorf("invalid period format: %s (use 7d, 30d, 180d)", period)
		}
		bars = datamanager.FilterDataByPeriod(bars, d)
	}
	return bars, nil
}
