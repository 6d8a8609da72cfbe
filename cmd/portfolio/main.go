package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/edocame/bollinger-backtest/internal/logger"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	"github.com/edocame/bollinger-backtest/internal/portfolio"
	"github.com/edocame/bollinger-backtest/pkg/reporting"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	AppName    = "Bollinger Portfolio"
	AppVersion = "1.0.0"

	DefaultBalancesGlob = "results/*/balance.csv"
	DefaultLookback     = 60
	DefaultPolicy       = "momentum"
	DefaultTopResults   = 20
)

func main() {
	var (
		balances    = flag.String("balances", DefaultBalancesGlob, "Glob of per-strategy balance CSVs")
		lookback    = flag.Int("lookback", DefaultLookback, "Lookback window in days")
		policyName  = flag.String("policy", DefaultPolicy, "Allocation policy: "+strings.Join(portfolio.PolicyNames(), ", "))
		sweep       = flag.Bool("sweep", false, "Run the full lookback x policy sweep instead of one run")
		rankBy      = flag.String("rank-by", "sharpe", "Sweep ranking statistic: sharpe or linearity")
		top         = flag.Int("top", DefaultTopResults, "Number of sweep rows to display")
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

	series, err := loadBalanceSeries(*balances)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}
	fmt.Printf("📂 Loaded %d strategy balance series\n\n", len(series))

	table, err := portfolio.BuildReturnsTable(series)
	if err != nil {
		log.Fatalf("❌ Returns table error: %v", err)
	}

	pfLogger, err := logger.NewLogger("portfolio")
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}
	defer pfLogger.Close()

	if *sweep {
		runSweep(table, *rankBy, *top, pfLogger)
		return
	}

	runSingle(table, *lookback, *policyName, pfLogger)
}

func runSingle(table *portfolio.ReturnsTable, lookback int, policyName string, pfLogger *logger.Logger) {
	policy, err := portfolio.NewPolicy(policyName)
	if err != nil {
		log.Fatalf("❌ Policy error: %v", err)
	}

	reb, err := portfolio.NewRebalancer(table)
	if err != nil {
		log.Fatalf("❌ Rebalancer error: %v", err)
	}

	result, err := reb.Run(lookback, policy)
	if err != nil {
		log.Fatalf("❌ Simulation error: %v", err)
	}

	metrics := portfolio.ComputeMetrics(result.Returns)
	pfLogger.Result("Policy %s lookback %d: final=%.4f sharpe=%.3f maxdd=%.2f%%",
		result.Policy, result.Lookback, result.FinalValue, metrics.SharpeRatio, metrics.MaxDrawdown*100)

	fmt.Printf("💼 Policy:            %s\n", result.Policy)
	fmt.Printf("🔁 Rebalance epochs:  %d\n", len(result.Epochs))
	fmt.Printf("💰 Final value:       %.4f\n", result.FinalValue)
	fmt.Printf("📈 Total return:      %.2f%%\n", metrics.TotalReturn*100)
	fmt.Printf("📈 Annualized return: %.2f%%\n", metrics.AnnualizedReturn*100)
	fmt.Printf("📊 Annualized vol:    %.2f%%\n", metrics.AnnualizedVol*100)
	fmt.Printf("📊 Sharpe ratio:      %.2f\n", metrics.SharpeRatio)
	fmt.Printf("📉 Max drawdown:      %.2f%%\n", metrics.MaxDrawdown*100)
}

func runSweep(table *portfolio.ReturnsTable, rankBy string, top int, pfLogger *logger.Logger) {
	cfg := portfolio.DefaultSweepConfig()
	if strings.EqualFold(rankBy, "linearity") {
		cfg.RankBy = portfolio.RankLinearity
	}

	results, err := portfolio.RunSweep(table, cfg, pfLogger)
	if err != nil {
		log.Fatalf("❌ Sweep error: %v", err)
	}

	reporting.OutputSweep(results, top)
}

func loadBalanceSeries(pattern string) (map[string]types.BalanceSeries, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no balance files match %s", pattern)
	}

	series := make(map[string]types.BalanceSeries, len(paths))
	for _, path := range paths {
		name, s, err := reporting.ReadBalanceCSV(path)
		if err != nil {
			return nil, err
		}
		// Disambiguate identically named files by their parent directory
		if _, exists := series[name]; exists {
			name = filepath.Base(filepath.Dir(path)) + "_" + name
		}
		series[name] = s
	}
	return series, nil
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
