package portfolio

import (
	"sort"

	"github.com/edocame/bollinger-backtest/internal/backtest"
	"github.com/edocame/bollinger-backtest/internal/logger"
)

// SweepRank selects the ranking statistic for the policy sweep.
type SweepRank string

const (
	RankSharpe    SweepRank = "sharpe"
	RankLinearity SweepRank = "linearity"
)

// SweepConfig spans the lookback and policy grid for the sweep.
type SweepConfig struct {
	Lookbacks []int
	Policies  []string
	RankBy    SweepRank
}

// DefaultSweepConfig covers every built-in policy over the lookbacks
// used for weekly rebalancing.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Lookbacks: []int{30, 60, 90, 120},
		Policies:  PolicyNames(),
		RankBy:    RankSharpe,
	}
}

// SweepResult is one evaluated lookback/policy combination.
type SweepResult struct {
	Policy         string
	Lookback       int
	Metrics        PerformanceMetrics
	FinalValue     float64
	LinearityScore float64
	Err            error
}

// RankValue returns the statistic this sweep sorts by. Failed
// combinations rank last.
func (r SweepResult) RankValue(by SweepRank) float64 {
	if r.Err != nil {
		return 0
	}
	if by == RankLinearity {
		return r.LinearityScore
	}
	return r.Metrics.SharpeRatio
}

// RunSweep simulates every lookback/policy combination over the table
// and returns results sorted best first. Individual combination
// failures are captured on the result instead of aborting the sweep.
func RunSweep(table *ReturnsTable, cfg SweepConfig, log *logger.Logger) ([]SweepResult, error) {
	reb, err := NewRebalancer(table)
	if err != nil {
		return nil, err
	}
	if len(cfg.Lookbacks) == 0 || len(cfg.Policies) == 0 {
		cfg = DefaultSweepConfig()
	}

	var results []SweepResult
	for _, name := range cfg.Policies {
		policy, err := NewPolicy(name)
		if err != nil {
			results = append(results, SweepResult{Policy: name, Err: err})
			continue
		}
		for _, lookback := range cfg.Lookbacks {
			res := SweepResult{Policy: name, Lookback: lookback}
			run, err := reb.Run(lookback, policy)
			if err != nil {
				res.Err = err
				if log != nil {
					log.Warning("Sweep %s/%d failed: %v", name, lookback, err)
				}
			} else {
				res.Metrics = ComputeMetrics(run.Returns)
				res.FinalValue = run.FinalValue
				lin := backtest.CalculateLinearity(run.Values)
				res.LinearityScore = lin.LinearityScore
				if log != nil {
					log.Result("Sweep %s/%d: final=%.4f sharpe=%.3f", name, lookback, run.FinalValue, res.Metrics.SharpeRatio)
				}
			}
			results = append(results, res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RankValue(cfg.RankBy) > results[j].RankValue(cfg.RankBy)
	})
	return results, nil
}
