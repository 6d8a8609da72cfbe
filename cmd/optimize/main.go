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
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	datamanager "github.com/edocame/bollinger-backtest/pkg/data"
	"github.com/edocame/bollinger-backtest/pkg/reporting"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	AppName    = "Bollinger Optimize"
	AppVersion = "1.0.0"

	// Default grid bounds
	DefaultWindowStart = 500
	DefaultWindowStop  = 4000
	DefaultWindowStep  = 500
	DefaultStdStart    = 1.0
	DefaultStdStop     = 3.0
	DefaultStdStep     = 0.25
	DefaultMinRows     = 100
	DefaultTopResults  = 20
	DefaultDataRoot    = "data"
)

func main() {
	var (
		dataFile    = flag.String("data", "", "Bid/ask CSV file to optimize over")
		symbol      = flag.String("symbol", "EURUSD", "Symbol name for reports")
		interval    = flag.String("interval", "1m", "Bar interval (for data file lookup)")
		dataRoot    = flag.String("data-root", DefaultDataRoot, "Root directory for data files")
		source      = flag.String("source", "", "Data source under the data root, or clickhouse")
		windowStart = flag.Int("window-start", DefaultWindowStart, "Grid window start (inclusive)")
		windowStop  = flag.Int("window-stop", DefaultWindowStop, "Grid window stop (inclusive)")
		windowStep  = flag.Int("window-step", DefaultWindowStep, "Grid window step")
		stdStart    = flag.Float64("std-start", DefaultStdStart, "Grid std multiplier start (inclusive)")
		stdStop     = flag.Float64("std-stop", DefaultStdStop, "Grid std multiplier stop (inclusive)")
		stdStep     = flag.Float64("std-step", DefaultStdStep, "Grid std multiplier step")
		minRows     = flag.Int("min-rows", DefaultMinRows, "Minimum usable rows after band warmup")
		workers     = flag.Int("workers", runtime.NumCPU(), "Parallel candidate workers")
		scoreBy     = flag.String("score-by", "pnl", "Ranking statistic: pnl or linearity")
		period      = flag.String("period", "", "Trailing period filter (e.g. 30d, 180d)")
		top         = flag.Int("top", DefaultTopResults, "Number of results to display")
		outputDir   = flag.String("output", "", "Output directory (default results/<symbol>_<interval>)")
		consoleOnly = flag.Bool("console-only", false, "Skip CSV/JSON output")
		metricsAddr = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
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

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	score := backtest.ScoreTotalPnL
	if strings.EqualFold(*scoreBy, "linearity") {
		score = backtest.ScoreLinearity
	}

	bars, err := loadBars(*dataFile, *dataRoot, *source, *symbol, *interval, *period)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	cfg := backtest.GridConfig{
		WindowStart: *windowStart,
		WindowStop:  *windowStop,
		WindowStep:  *windowStep,
		StdStart:    *stdStart,
		StdStop:     *stdStop,
		StdStep:     *stdStep,
		MinRows:     *minRows,
		Workers:     *workers,
		ScoreBy:     score,
	}

	fmt.Printf("🔍 Evaluating %d candidates over %d bars with %d workers\n\n",
		len(cfg.Candidates()), len(bars), *workers)

	results, err := backtest.Optimize(bars, cfg)
	if err != nil {
		log.Fatalf("❌ Optimization error: %v", err)
	}

	reporting.OutputCandidates(results, *top)

	if !*consoleOnly && len(results) > 0 {
		dir := *outputDir
		if dir == "" {
			dir = reporting.DefaultOutputDir(*symbol, *interval)
		}

		reporter := reporting.NewDefaultCSVReporter()
		candidatesPath := filepath.Join(dir, "candidates.csv")
		if err := reporter.WriteCandidatesCSV(results, candidatesPath); err != nil {
			log.Fatalf("❌ Failed to write candidates: %v", err)
		}

		bestPath := filepath.Join(dir, "best.json")
		best := reporting.NewBestCandidate(*symbol, results[0])
		if err := reporting.WriteBestCandidateJSON(best, bestPath); err != nil {
			log.Fatalf("❌ Failed to write best config: %v", err)
		}

		fmt.Printf("\n💾 Results written to %s and %s\n", candidatesPath, bestPath)
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

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️  Metrics server stopped: %v", err)
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
